package model

// Slot はイベントの時間枠を表す（サーバーからの読み取り専用投影）。
// unlimited_participantsがtrueの場合、容量フィールドは適合判定に使用しない。
type Slot struct {
	ID                    int64  `json:"id"`
	Event                 int64  `json:"event"`
	Date                  string `json:"date"`
	StartTime             string `json:"start_time"`
	EndTime               string `json:"end_time"`
	UnlimitedParticipants bool   `json:"unlimited_participants"`
	MaxParticipants       *int   `json:"max_participants"`
	AvailableParticipants *int   `json:"available_participants"`
}

// Fits は指定人数がこのスロットに収まるかを判定する。
// 無制限スロットは常に適合。容量付きスロットは残席が人数以上の場合のみ適合する。
func (s *Slot) Fits(count int) bool {
	if s.UnlimitedParticipants {
		return true
	}
	if s.AvailableParticipants == nil {
		return false
	}
	return *s.AvailableParticipants >= count
}
