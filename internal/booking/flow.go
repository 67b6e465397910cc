// Package booking は複数ステップの予約ウィザードを駆動する状態機械を提供する。
// 現在ステップはタグ付きの値として保持し、すべての遷移はControllerのメソッド経由で行う。
// 不正な遷移はエラーとして返し、到達不能な状態（スロット選択の飛ばしなど）を作らない。
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hitoshi/eventman/internal/model"
)

// Step は予約フローの現在ステップを表す。
type Step string

const (
	// StepIdle は予約フローが進行していない状態。
	StepIdle Step = "idle"
	// StepResolvingConstraint は参加人数制約を解決中の状態。
	StepResolvingConstraint Step = "resolving_constraint"
	// StepSelectingCount は参加人数を選択中の状態。
	StepSelectingCount Step = "selecting_count"
	// StepCollectingDetails は参加者情報を入力中の状態。
	StepCollectingDetails Step = "collecting_details"
	// StepSelectingSlot はスロットを選択中の状態。
	StepSelectingSlot Step = "selecting_slot"
	// StepCommitting はカートへの確定処理を実行中の状態。
	StepCommitting Step = "committing"
)

// API はControllerが必要とするAPI呼び出しのインターフェース。
type API interface {
	ConstraintForEvent(ctx context.Context, eventID int64) (*model.ParticipationConstraint, error)
	ListSlotsByEvent(ctx context.Context, eventID int64) ([]model.Slot, error)
	GetOrCreateCart(ctx context.Context) (*model.Cart, error)
	CreateCartItem(ctx context.Context, cartID, eventID int64, participantsCount int) (*model.CartItem, error)
	CreateTempBooking(ctx context.Context, cartItemID int64, p model.ParticipantDetail) (*model.TempBooking, error)
	CreateTempTimeslot(ctx context.Context, cartItemID, slotID int64) (*model.TempTimeslot, error)
}

// Notifier はユーザー向け通知の発行インターフェース。
type Notifier interface {
	Success(message string)
	Error(message string)
}

// MetricsRecorder はカート確定のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordCommit(success bool)
}

// Snapshot は予約フロー状態の読み取り専用コピーを表す。
type Snapshot struct {
	Step          Step
	EventID       int64
	Count         int
	Index         int
	Entries       []model.ParticipantDetail
	AllowedCounts []int
	Slots         []model.Slot
}

// Controller は予約ウィザードの状態機械を管理する。
// ネットワーク呼び出し中の重複送信はビジーラッチで無視し、
// キャンセル後に届いた応答は世代識別子の照合で破棄する。
type Controller struct {
	api      API
	notifier Notifier
	logger   *slog.Logger
	metrics  MetricsRecorder // nil可
	validate *validator.Validate

	mu         sync.Mutex
	step       Step
	busy       bool
	generation uuid.UUID

	eventID    int64
	constraint *model.ParticipationConstraint
	count      int
	index      int
	entries    []model.ParticipantDetail
	slots      []model.Slot
}

// NewController はControllerの新しいインスタンスを生成する。初期ステップはIdle。
func NewController(apiClient API, notifier Notifier, logger *slog.Logger, metrics MetricsRecorder) *Controller {
	return &Controller{
		api:        apiClient,
		notifier:   notifier,
		logger:     logger,
		metrics:    metrics,
		validate:   model.Validator(),
		step:       StepIdle,
		generation: uuid.New(),
	}
}

// Current は予約フロー状態のスナップショットを返す。
func (c *Controller) Current() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		Step:    c.step,
		EventID: c.eventID,
		Count:   c.count,
		Index:   c.index,
	}
	if c.entries != nil {
		snap.Entries = make([]model.ParticipantDetail, len(c.entries))
		copy(snap.Entries, c.entries)
	}
	if c.step == StepSelectingCount {
		snap.AllowedCounts = c.constraint.AllowedCounts()
	}
	if c.slots != nil {
		snap.Slots = make([]model.Slot, len(c.slots))
		copy(snap.Slots, c.slots)
	}
	return snap
}

// Begin はイベントに対する予約フローを開始し、参加人数制約を解決する。
// 制約が未設定の場合はsingle扱い（人数1・選択不要）となる。
// 制約の解決結果に応じて、人数選択または参加者入力へ遷移する。
func (c *Controller) Begin(ctx context.Context, eventID int64) error {
	c.mu.Lock()
	if c.step != StepIdle {
		c.mu.Unlock()
		return stateError("予約の開始", c.step)
	}
	if c.busy {
		c.mu.Unlock()
		return busyError()
	}
	c.busy = true
	c.step = StepResolvingConstraint
	c.eventID = eventID
	gen := c.generation
	c.mu.Unlock()

	constraint, err := c.api.ConstraintForEvent(ctx, eventID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		// フライト中にキャンセルされた。応答は破棄する。
		return nil
	}
	c.busy = false
	if err != nil {
		c.resetLocked()
		flowErr := model.NewLoadFailedError("参加人数制約")
		c.notifier.Error(flowErr.Message)
		return flowErr
	}

	c.constraint = constraint
	count, needsSelection := constraint.ResolveCount()
	if needsSelection {
		c.step = StepSelectingCount
		c.logger.Info("人数選択へ遷移します",
			slog.Int64("event_id", eventID),
		)
		return nil
	}

	c.count = count
	c.entries = make([]model.ParticipantDetail, count)
	c.index = 0
	c.step = StepCollectingDetails
	c.logger.Info("人数選択を省略して参加者入力へ遷移します",
		slog.Int64("event_id", eventID),
		slog.Int("count", count),
	)
	return nil
}

// ChooseCount は参加人数を選択する。制約の範囲外の人数は受け付けない。
func (c *Controller) ChooseCount(count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step != StepSelectingCount {
		return stateError("人数の選択", c.step)
	}
	if !c.constraint.Allows(count) {
		flowErr := model.NewInvalidInputError(fmt.Sprintf("%d名は選択できません", count))
		c.notifier.Error(flowErr.Message)
		return flowErr
	}
	c.count = count
	c.entries = make([]model.ParticipantDetail, count)
	c.index = 0
	c.step = StepCollectingDetails
	return nil
}

// SubmitDetail は現在のインデックスの参加者情報を受理する。
// 最後のインデックスの受理でスロット一覧を取得し、スロット選択へ遷移する。
// スロット取得の失敗では参加者入力に留まり、再送信でやり直せる。
func (c *Controller) SubmitDetail(ctx context.Context, detail model.ParticipantDetail) error {
	c.mu.Lock()
	if c.step != StepCollectingDetails {
		c.mu.Unlock()
		return stateError("参加者情報の送信", c.step)
	}
	if c.busy {
		c.mu.Unlock()
		return busyError()
	}
	if err := c.validate.Struct(detail); err != nil {
		flowErr := model.NewInvalidInputError(model.DescribeValidationError(err))
		c.mu.Unlock()
		c.notifier.Error(flowErr.Message)
		return flowErr
	}

	c.entries[c.index] = detail
	if c.index < c.count-1 {
		c.index++
		c.mu.Unlock()
		return nil
	}

	// 最後の1名が受理された。スロット選択の準備に入る。
	c.busy = true
	gen := c.generation
	eventID := c.eventID
	c.mu.Unlock()

	slots, err := c.api.ListSlotsByEvent(ctx, eventID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return nil
	}
	c.busy = false
	if err != nil {
		flowErr := model.NewLoadFailedError("スロット一覧")
		c.notifier.Error(flowErr.Message)
		return flowErr
	}
	c.slots = slots
	c.step = StepSelectingSlot
	return nil
}

// Back は参加者入力を1つ前のインデックスへ戻す。
// 入力済みの参加者情報は保持されたまま、編集のために再表示できる。
// スロット選択からは最後の参加者の入力画面へ戻る。
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.step {
	case StepCollectingDetails:
		if c.busy {
			return busyError()
		}
		if c.index == 0 {
			return stateError("前の参加者への移動", c.step)
		}
		c.index--
		return nil
	case StepSelectingSlot:
		c.step = StepCollectingDetails
		c.index = c.count - 1
		return nil
	default:
		return stateError("前のステップへの移動", c.step)
	}
}

// SelectSlot はスロットを選択し、カートへの確定処理を実行する。
// 人数に適合しないスロットの選択は状態を変更せずエラー通知のみを行う。
// 確定処理は カート取得 → カートアイテム作成 → 参加者を入力順に作成 →
// スロット紐付け作成 の順で厳密に逐次実行し、途中の失敗で残りを中断する。
// 作成済みの暫定行はクライアント側では取り消さない（サーバー側で整理される）。
func (c *Controller) SelectSlot(ctx context.Context, slotID int64) error {
	c.mu.Lock()
	if c.step != StepSelectingSlot {
		c.mu.Unlock()
		return stateError("スロットの選択", c.step)
	}
	if c.busy {
		c.mu.Unlock()
		return busyError()
	}

	var slot *model.Slot
	for i := range c.slots {
		if c.slots[i].ID == slotID {
			slot = &c.slots[i]
			break
		}
	}
	if slot == nil {
		c.mu.Unlock()
		return model.NewInvalidInputError(fmt.Sprintf("スロット %d は選択肢にありません", slotID))
	}
	if !slot.Fits(c.count) {
		count := c.count
		c.mu.Unlock()
		flowErr := model.NewSlotUnavailableError(count)
		c.notifier.Error(flowErr.Message)
		return flowErr
	}

	c.step = StepCommitting
	c.busy = true
	gen := c.generation
	eventID := c.eventID
	count := c.count
	entries := make([]model.ParticipantDetail, len(c.entries))
	copy(entries, c.entries)
	c.mu.Unlock()

	err := c.commit(ctx, eventID, count, entries, slotID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return nil
	}
	c.busy = false
	if err != nil {
		c.logger.Error("カート確定に失敗しました",
			slog.Int64("event_id", eventID),
			slog.String("error", err.Error()),
		)
		if c.metrics != nil {
			c.metrics.RecordCommit(false)
		}
		c.resetLocked()
		flowErr := model.NewCommitFailedError()
		c.notifier.Error(flowErr.Message)
		return flowErr
	}

	if c.metrics != nil {
		c.metrics.RecordCommit(true)
	}
	c.logger.Info("カートに追加しました",
		slog.Int64("event_id", eventID),
		slog.Int("count", count),
		slog.Int64("slot_id", slotID),
	)
	c.resetLocked()
	c.notifier.Success("予約をカートに追加しました。")
	return nil
}

// Cancel は予約フローを即時に中断し、入力中の状態をすべて破棄する。
// 発行済みのネットワーク呼び出しは中断しないが、世代識別子を更新することで
// その応答が後から状態を書き換えることを防ぐ。
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step == StepIdle {
		return
	}
	c.logger.Info("予約フローをキャンセルしました", slog.String("step", string(c.step)))
	c.resetLocked()
}

// commit はカート確定のサブ操作を厳密に逐次実行する。
// 各ステップは前のステップが返した識別子に依存するため並列化できない。
func (c *Controller) commit(ctx context.Context, eventID int64, count int, entries []model.ParticipantDetail, slotID int64) error {
	cart, err := c.api.GetOrCreateCart(ctx)
	if err != nil {
		return fmt.Errorf("カートの取得に失敗しました: %w", err)
	}
	item, err := c.api.CreateCartItem(ctx, cart.ID, eventID, count)
	if err != nil {
		return fmt.Errorf("カートアイテムの作成に失敗しました: %w", err)
	}
	for i, p := range entries {
		if _, err := c.api.CreateTempBooking(ctx, item.ID, p); err != nil {
			return fmt.Errorf("参加者 %d 人目の仮予約の作成に失敗しました: %w", i+1, err)
		}
	}
	if _, err := c.api.CreateTempTimeslot(ctx, item.ID, slotID); err != nil {
		return fmt.Errorf("スロット紐付けの作成に失敗しました: %w", err)
	}
	return nil
}

// resetLocked はフロー状態をIdleへ戻す。呼び出し元がロックを保持していること。
func (c *Controller) resetLocked() {
	c.step = StepIdle
	c.busy = false
	c.generation = uuid.New()
	c.eventID = 0
	c.constraint = nil
	c.count = 0
	c.index = 0
	c.entries = nil
	c.slots = nil
}

func stateError(op string, step Step) *model.FlowError {
	return &model.FlowError{
		Code:     model.ErrCodeFlowState,
		Message:  fmt.Sprintf("%sは現在のステップ（%s）では実行できません。", op, step),
		Category: "booking",
	}
}

func busyError() *model.FlowError {
	return &model.FlowError{
		Code:     model.ErrCodeFlowBusy,
		Message:  "処理中です。完了までお待ちください。",
		Category: "booking",
	}
}
