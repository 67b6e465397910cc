// Package model はサーバーリソースのクライアント側ビューモデルを定義する。
// 予約可否の判定や永続状態の正はすべてサーバー側にあり、
// クライアントは表示・入力と進行中フローの一時状態だけを持つ。
package model

// Role はユーザーの役割を表す。
type Role string

const (
	// RoleParticipant は一般参加者。
	RoleParticipant Role = "participant"
	// RoleOrganiser はイベント主催者。
	RoleOrganiser Role = "organiser"
	// RoleAdmin は管理者。
	RoleAdmin Role = "admin"
)

// Identity は認証済みユーザーの識別情報を表す。
// GET authenticated/ のレスポンスから生成され、SessionManagerのみが保持を更新する。
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Category はイベントカテゴリを表す。
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ParentEvent は親イベント（イベントシリーズ）を表す。
type ParentEvent struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageKey    string `json:"image_key"`
}

// Event は予約対象のイベントを表す。
// Descriptionはサーバー提供のHTMLで、APIクライアントがデコード時にサニタイズする。
type Event struct {
	ID           int64   `json:"id"`
	ParentEvent  int64   `json:"parent_event"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Category     int64   `json:"category"`
	ConstraintID *int64  `json:"constraint_id"`
	ImageKey     string  `json:"image_key"`
	Organisers   []int64 `json:"organisers"`
}

// EventDetails はイベントの補足情報を表す。
type EventDetails struct {
	ID       int64  `json:"id"`
	Event    int64  `json:"event"`
	Venue    string `json:"venue"`
	Rules    string `json:"rules"`
	Contact  string `json:"contact"`
	Schedule string `json:"schedule"`
}

// Organiser は主催者アカウントを表す。
type Organiser struct {
	ID          int64  `json:"id"`
	UserDisplay string `json:"user_display"`
}

// Cart はユーザーの進行中カートを表す。
type Cart struct {
	ID   int64 `json:"id"`
	User int64 `json:"user"`
}

// CartItem はカート内の1イベント選択を表す。
type CartItem struct {
	ID                int64 `json:"id"`
	Cart              int64 `json:"cart"`
	Event             int64 `json:"event"`
	ParticipantsCount int   `json:"participants_count"`
}

// TempBooking はカートに紐付く仮予約の参加者レコードを表す。
// チェックアウトで確定されるまでの暫定行であり、クライアントは削除補償を行わない。
type TempBooking struct {
	ID          int64   `json:"id"`
	CartItem    int64   `json:"cart_item"`
	Name        string  `json:"name"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
}

// TempTimeslot はカートアイテムとスロットの暫定的な紐付けを表す。
type TempTimeslot struct {
	ID       int64 `json:"id"`
	CartItem int64 `json:"cart_item"`
	Slot     int64 `json:"slot"`
}

// BookedParticipant は確定済み予約の参加者1名を表す。
// 受付（チェックイン）対象となる。
type BookedParticipant struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CheckedIn bool   `json:"checked_in"`
}

// AdminBooking は管理画面に表示する確定済み予約を表す。
type AdminBooking struct {
	ID           int64               `json:"id"`
	Event        int64               `json:"event"`
	EventName    string              `json:"event_name"`
	Slot         int64               `json:"slot"`
	Participants []BookedParticipant `json:"participants"`
}

// SignedImage は保護画像への時限付きアクセスURLを表す。
// ExpiresInは秒単位。期限前にリフレッシュされる想定で、クライアント側で組み立てない。
type SignedImage struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}
