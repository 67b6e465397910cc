// Package admin は主催者・管理者向けの変更系フローを提供する。
// 各フローはローカル検証 → API呼び出し → 結果通知の共通形をとり、
// 永続状態の正はサーバーの応答で確定する。
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/eventman/internal/api"
	"github.com/hitoshi/eventman/internal/model"
)

// API はFlowsが必要とする管理系API呼び出しのインターフェース。
type API interface {
	CreateEvent(ctx context.Context, in api.EventInput, image *api.ImageAttachment) (*model.Event, error)
	UpdateEvent(ctx context.Context, id int64, in api.EventInput, image *api.ImageAttachment) (*model.Event, error)
	UpdateEventOrganisers(ctx context.Context, eventID int64, organiserIDs []int64) error
	DeleteEvent(ctx context.Context, id int64) error
	CreateSlot(ctx context.Context, in api.SlotInput) (*model.Slot, error)
	UpdateSlot(ctx context.Context, id int64, in api.SlotInput) (*model.Slot, error)
	DeleteSlot(ctx context.Context, id int64) error
	CreateConstraint(ctx context.Context, in api.ConstraintInput) (*model.ParticipationConstraint, error)
	UpdateConstraint(ctx context.Context, id int64, in api.ConstraintInput) (*model.ParticipationConstraint, error)
	CreateEventDetails(ctx context.Context, in api.DetailsInput) (*model.EventDetails, error)
	UpdateEventDetails(ctx context.Context, id int64, in api.DetailsInput) (*model.EventDetails, error)
	ListAdminBookings(ctx context.Context) ([]model.AdminBooking, error)
	CheckInParticipant(ctx context.Context, participantID int64) error
}

// Notifier はユーザー向け通知の発行インターフェース。
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Confirmer は破壊的操作の実行前確認のインターフェース。
type Confirmer interface {
	Confirm(prompt string) bool
}

// Flows は管理系の変更フローをまとめる。
type Flows struct {
	api       API
	notifier  Notifier
	confirmer Confirmer
	logger    *slog.Logger
}

// NewFlows はFlowsの新しいインスタンスを生成する。
func NewFlows(apiClient API, notifier Notifier, confirmer Confirmer, logger *slog.Logger) *Flows {
	return &Flows{
		api:       apiClient,
		notifier:  notifier,
		confirmer: confirmer,
		logger:    logger,
	}
}

// CreateEvent はイベントを作成する。画像添付は任意。
func (f *Flows) CreateEvent(ctx context.Context, in api.EventInput, image *api.ImageAttachment) (*model.Event, error) {
	event, err := f.api.CreateEvent(ctx, in, image)
	if err != nil {
		return nil, f.writeFailed("イベント", err)
	}
	f.notifier.Success("イベントを作成しました。")
	return event, nil
}

// UpdateEvent はイベントを更新する。
func (f *Flows) UpdateEvent(ctx context.Context, id int64, in api.EventInput, image *api.ImageAttachment) (*model.Event, error) {
	event, err := f.api.UpdateEvent(ctx, id, in, image)
	if err != nil {
		return nil, f.writeFailed("イベント", err)
	}
	f.notifier.Success("イベントを更新しました。")
	return event, nil
}

// UpdateOrganisers はイベントの主催者集合を置き換える。
func (f *Flows) UpdateOrganisers(ctx context.Context, eventID int64, organiserIDs []int64) error {
	if err := f.api.UpdateEventOrganisers(ctx, eventID, organiserIDs); err != nil {
		return f.writeFailed("主催者", err)
	}
	f.notifier.Success("主催者を更新しました。")
	return nil
}

// DeleteEvent はイベントを削除する。
// 実行前に確認を求め、承認されなかった場合は何も行わない。
// 依存レコードによる競合（409）は汎用の失敗より具体的なメッセージで通知する。
func (f *Flows) DeleteEvent(ctx context.Context, id int64) error {
	if !f.confirmer.Confirm("このイベントを削除しますか？この操作は取り消せません。") {
		return nil
	}
	return f.deleteWith(func() error { return f.api.DeleteEvent(ctx, id) }, "イベント")
}

// SaveSlot はスロットを作成または更新する。idがnilの場合は作成。
// 終了時刻が開始時刻より後であることをネットワーク呼び出しの前に検証する。
func (f *Flows) SaveSlot(ctx context.Context, id *int64, in api.SlotInput) (*model.Slot, error) {
	if err := validateSlotTimes(in.StartTime, in.EndTime); err != nil {
		flowErr := model.NewInvalidInputError(err.Error())
		f.notifier.Error(flowErr.Message)
		return nil, flowErr
	}

	var slot *model.Slot
	var err error
	if id == nil {
		slot, err = f.api.CreateSlot(ctx, in)
	} else {
		slot, err = f.api.UpdateSlot(ctx, *id, in)
	}
	if err != nil {
		return nil, f.writeFailed("スロット", err)
	}
	f.notifier.Success("スロットを保存しました。")
	return slot, nil
}

// DeleteSlot はスロットを削除する。
// 既存予約が紐付くスロットの削除競合は具体的なメッセージで通知する。
func (f *Flows) DeleteSlot(ctx context.Context, id int64) error {
	if !f.confirmer.Confirm("このスロットを削除しますか？この操作は取り消せません。") {
		return nil
	}
	return f.deleteWith(func() error { return f.api.DeleteSlot(ctx, id) }, "スロット")
}

// SaveConstraint は参加人数制約を作成または更新する。idがnilの場合は作成。
func (f *Flows) SaveConstraint(ctx context.Context, id *int64, in api.ConstraintInput) (*model.ParticipationConstraint, error) {
	if in.LowerLimit != nil && in.UpperLimit != nil && *in.UpperLimit < *in.LowerLimit {
		flowErr := model.NewInvalidInputError("人数の上限は下限以上でなければなりません")
		f.notifier.Error(flowErr.Message)
		return nil, flowErr
	}

	var constraint *model.ParticipationConstraint
	var err error
	if id == nil {
		constraint, err = f.api.CreateConstraint(ctx, in)
	} else {
		constraint, err = f.api.UpdateConstraint(ctx, *id, in)
	}
	if err != nil {
		return nil, f.writeFailed("参加人数制約", err)
	}
	f.notifier.Success("参加人数制約を保存しました。")
	return constraint, nil
}

// SaveDetails はイベント補足情報を作成または更新する。idがnilの場合は作成。
func (f *Flows) SaveDetails(ctx context.Context, id *int64, in api.DetailsInput) (*model.EventDetails, error) {
	var details *model.EventDetails
	var err error
	if id == nil {
		details, err = f.api.CreateEventDetails(ctx, in)
	} else {
		details, err = f.api.UpdateEventDetails(ctx, *id, in)
	}
	if err != nil {
		return nil, f.writeFailed("補足情報", err)
	}
	f.notifier.Success("補足情報を保存しました。")
	return details, nil
}

// LoadBookings は受付画面に表示する確定済み予約の一覧を取得する。
func (f *Flows) LoadBookings(ctx context.Context) ([]model.AdminBooking, error) {
	bookings, err := f.api.ListAdminBookings(ctx)
	if err != nil {
		flowErr := model.NewLoadFailedError("予約一覧")
		f.notifier.Error(flowErr.Message)
		return nil, flowErr
	}
	return bookings, nil
}

// CheckIn は到着した参加者を1名ずつチェックイン済みにする。
func (f *Flows) CheckIn(ctx context.Context, participantID int64) error {
	if err := f.api.CheckInParticipant(ctx, participantID); err != nil {
		f.logger.Error("チェックインに失敗しました",
			slog.Int64("participant_id", participantID),
			slog.String("error", err.Error()),
		)
		flowErr := model.NewWriteFailedError("チェックイン状態")
		f.notifier.Error(flowErr.Message)
		return flowErr
	}
	f.notifier.Success("チェックインしました。")
	return nil
}

// deleteWith は削除フローの共通処理。
// 成功時は楽観的に完了を通知し、競合と汎用失敗を区別して通知する。
func (f *Flows) deleteWith(del func() error, entity string) error {
	err := del()
	if err == nil {
		f.notifier.Success(fmt.Sprintf("%sを削除しました。", entity))
		return nil
	}

	if api.IsConflict(err) {
		flowErr := model.NewDeleteConflictError(entity)
		f.notifier.Error(flowErr.Message)
		return flowErr
	}

	f.logger.Error("削除に失敗しました",
		slog.String("entity", entity),
		slog.String("error", err.Error()),
	)
	flowErr := model.NewDeleteFailedError(entity)
	f.notifier.Error(flowErr.Message)
	return flowErr
}

// writeFailed は書き込み失敗の共通通知を行う。
func (f *Flows) writeFailed(what string, err error) *model.FlowError {
	f.logger.Error("保存に失敗しました",
		slog.String("what", what),
		slog.String("error", err.Error()),
	)
	flowErr := model.NewWriteFailedError(what)
	f.notifier.Error(flowErr.Message)
	return flowErr
}

// validateSlotTimes は終了時刻が開始時刻より後であることを検証する。
// 時刻は "15:04" または "15:04:05" 形式を受け付ける。
func validateSlotTimes(startTime, endTime string) error {
	start, err := parseClock(startTime)
	if err != nil {
		return fmt.Errorf("開始時刻の形式が不正です: %s", startTime)
	}
	end, err := parseClock(endTime)
	if err != nil {
		return fmt.Errorf("終了時刻の形式が不正です: %s", endTime)
	}
	if !end.After(start) {
		return fmt.Errorf("終了時刻は開始時刻より後でなければなりません")
	}
	return nil
}

func parseClock(value string) (time.Time, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("時刻として解釈できません: %s", value)
}
