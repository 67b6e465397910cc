package admin

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/hitoshi/eventman/internal/api"
	"github.com/hitoshi/eventman/internal/model"
)

// fakeAdminAPI は呼び出しを記録する管理系APIのスタブ。
type fakeAdminAPI struct {
	ops []string

	deleteEventErr error
	deleteSlotErr  error
	createSlotErr  error
	checkInErr     error
	bookingsErr    error
}

func (f *fakeAdminAPI) CreateEvent(_ context.Context, in api.EventInput, _ *api.ImageAttachment) (*model.Event, error) {
	f.ops = append(f.ops, "create-event:"+in.Name)
	return &model.Event{ID: 1, Name: in.Name}, nil
}

func (f *fakeAdminAPI) UpdateEvent(_ context.Context, id int64, in api.EventInput, _ *api.ImageAttachment) (*model.Event, error) {
	f.ops = append(f.ops, "update-event")
	return &model.Event{ID: id, Name: in.Name}, nil
}

func (f *fakeAdminAPI) UpdateEventOrganisers(_ context.Context, _ int64, _ []int64) error {
	f.ops = append(f.ops, "update-organisers")
	return nil
}

func (f *fakeAdminAPI) DeleteEvent(_ context.Context, _ int64) error {
	f.ops = append(f.ops, "delete-event")
	return f.deleteEventErr
}

func (f *fakeAdminAPI) CreateSlot(_ context.Context, _ api.SlotInput) (*model.Slot, error) {
	f.ops = append(f.ops, "create-slot")
	if f.createSlotErr != nil {
		return nil, f.createSlotErr
	}
	return &model.Slot{ID: 2}, nil
}

func (f *fakeAdminAPI) UpdateSlot(_ context.Context, id int64, _ api.SlotInput) (*model.Slot, error) {
	f.ops = append(f.ops, "update-slot")
	return &model.Slot{ID: id}, nil
}

func (f *fakeAdminAPI) DeleteSlot(_ context.Context, _ int64) error {
	f.ops = append(f.ops, "delete-slot")
	return f.deleteSlotErr
}

func (f *fakeAdminAPI) CreateConstraint(_ context.Context, _ api.ConstraintInput) (*model.ParticipationConstraint, error) {
	f.ops = append(f.ops, "create-constraint")
	return &model.ParticipationConstraint{ID: 3}, nil
}

func (f *fakeAdminAPI) UpdateConstraint(_ context.Context, id int64, _ api.ConstraintInput) (*model.ParticipationConstraint, error) {
	f.ops = append(f.ops, "update-constraint")
	return &model.ParticipationConstraint{ID: id}, nil
}

func (f *fakeAdminAPI) CreateEventDetails(_ context.Context, _ api.DetailsInput) (*model.EventDetails, error) {
	f.ops = append(f.ops, "create-details")
	return &model.EventDetails{ID: 4}, nil
}

func (f *fakeAdminAPI) UpdateEventDetails(_ context.Context, id int64, _ api.DetailsInput) (*model.EventDetails, error) {
	f.ops = append(f.ops, "update-details")
	return &model.EventDetails{ID: id}, nil
}

func (f *fakeAdminAPI) ListAdminBookings(_ context.Context) ([]model.AdminBooking, error) {
	f.ops = append(f.ops, "list-bookings")
	if f.bookingsErr != nil {
		return nil, f.bookingsErr
	}
	return []model.AdminBooking{{ID: 5, EventName: "文化祭"}}, nil
}

func (f *fakeAdminAPI) CheckInParticipant(_ context.Context, _ int64) error {
	f.ops = append(f.ops, "check-in")
	return f.checkInErr
}

type fakeNotifier struct {
	successes []string
	errors    []string
}

func (f *fakeNotifier) Success(message string) { f.successes = append(f.successes, message) }
func (f *fakeNotifier) Error(message string)   { f.errors = append(f.errors, message) }

// fakeConfirmer は常に固定の応答を返す確認ダイアログのスタブ。
type fakeConfirmer struct {
	answer  bool
	prompts []string
}

func (f *fakeConfirmer) Confirm(prompt string) bool {
	f.prompts = append(f.prompts, prompt)
	return f.answer
}

func newTestFlows(apiStub *fakeAdminAPI, confirm bool) (*Flows, *fakeNotifier, *fakeConfirmer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	notifier := &fakeNotifier{}
	confirmer := &fakeConfirmer{answer: confirm}
	return NewFlows(apiStub, notifier, confirmer, logger), notifier, confirmer
}

func int64Ptr(n int64) *int64 { return &n }
func intPtr(n int) *int       { return &n }

func TestDeleteSlot_Conflict_SpecificMessage(t *testing.T) {
	apiStub := &fakeAdminAPI{deleteSlotErr: &api.Error{StatusCode: http.StatusConflict, Detail: "has bookings"}}
	flows, notifier, _ := newTestFlows(apiStub, true)

	err := flows.DeleteSlot(context.Background(), 5)

	var flowErr *model.FlowError
	if !errors.As(err, &flowErr) || flowErr.Code != model.ErrCodeDeleteConflict {
		t.Fatalf("409は削除競合エラーとして返されるべき: %v", err)
	}
	if len(notifier.errors) != 1 || !strings.Contains(notifier.errors[0], "既存の予約") {
		t.Errorf("競合は汎用failureより具体的なメッセージで通知すべき: %v", notifier.errors)
	}
}

func TestDeleteSlot_GenericFailure_GenericMessage(t *testing.T) {
	apiStub := &fakeAdminAPI{deleteSlotErr: errors.New("connection refused")}
	flows, notifier, _ := newTestFlows(apiStub, true)

	err := flows.DeleteSlot(context.Background(), 5)

	var flowErr *model.FlowError
	if !errors.As(err, &flowErr) || flowErr.Code != model.ErrCodeDeleteFailed {
		t.Fatalf("競合以外の失敗は汎用の削除失敗となるべき: %v", err)
	}
	if len(notifier.errors) != 1 || strings.Contains(notifier.errors[0], "既存の予約") {
		t.Errorf("汎用失敗に競合メッセージを使うべきではない: %v", notifier.errors)
	}
}

func TestDeleteSlot_NotConfirmed_NoAPICall(t *testing.T) {
	apiStub := &fakeAdminAPI{}
	flows, notifier, confirmer := newTestFlows(apiStub, false)

	if err := flows.DeleteSlot(context.Background(), 5); err != nil {
		t.Fatalf("確認の取り消しはエラーではない: %v", err)
	}
	if len(apiStub.ops) != 0 {
		t.Errorf("承認されない削除はAPIを呼ぶべきではない: %v", apiStub.ops)
	}
	if len(confirmer.prompts) != 1 {
		t.Errorf("確認は1回だけ表示されるべき: %v", confirmer.prompts)
	}
	if len(notifier.successes)+len(notifier.errors) != 0 {
		t.Error("取り消し時に通知を発行すべきではない")
	}
}

func TestDeleteEvent_Success_OptimisticClose(t *testing.T) {
	apiStub := &fakeAdminAPI{}
	flows, notifier, _ := newTestFlows(apiStub, true)

	if err := flows.DeleteEvent(context.Background(), 3); err != nil {
		t.Fatalf("DeleteEvent がエラーを返した: %v", err)
	}
	if len(notifier.successes) != 1 {
		t.Errorf("成功時は完了を通知すべき: %v", notifier.successes)
	}
}

func TestSaveSlot_EndBeforeStart_NoNetworkCall(t *testing.T) {
	apiStub := &fakeAdminAPI{}
	flows, notifier, _ := newTestFlows(apiStub, true)

	_, err := flows.SaveSlot(context.Background(), nil, api.SlotInput{
		Event:     1,
		Date:      "2026-10-01",
		StartTime: "15:00:00",
		EndTime:   "14:00:00",
	})

	var flowErr *model.FlowError
	if !errors.As(err, &flowErr) || flowErr.Code != model.ErrCodeInvalidInput {
		t.Fatalf("終了時刻が開始時刻以前の入力は拒否されるべき: %v", err)
	}
	if len(apiStub.ops) != 0 {
		t.Errorf("検証失敗時はネットワーク呼び出しを行うべきではない: %v", apiStub.ops)
	}
	if len(notifier.errors) != 1 {
		t.Errorf("検証エラーの通知数 = %d, want 1", len(notifier.errors))
	}
}

func TestSaveSlot_CreateAndUpdate(t *testing.T) {
	apiStub := &fakeAdminAPI{}
	flows, _, _ := newTestFlows(apiStub, true)
	in := api.SlotInput{Event: 1, Date: "2026-10-01", StartTime: "10:00:00", EndTime: "11:30:00"}

	if _, err := flows.SaveSlot(context.Background(), nil, in); err != nil {
		t.Fatalf("作成がエラーを返した: %v", err)
	}
	if _, err := flows.SaveSlot(context.Background(), int64Ptr(2), in); err != nil {
		t.Fatalf("更新がエラーを返した: %v", err)
	}

	want := []string{"create-slot", "update-slot"}
	if len(apiStub.ops) != 2 || apiStub.ops[0] != want[0] || apiStub.ops[1] != want[1] {
		t.Errorf("idの有無で作成・更新を切り替えるべき: %v", apiStub.ops)
	}
}

func TestSaveConstraint_UpperBelowLower_Rejected(t *testing.T) {
	apiStub := &fakeAdminAPI{}
	flows, _, _ := newTestFlows(apiStub, true)

	_, err := flows.SaveConstraint(context.Background(), nil, api.ConstraintInput{
		Event:       1,
		BookingType: model.BookingTypeMultiple,
		LowerLimit:  intPtr(4),
		UpperLimit:  intPtr(2),
	})

	var flowErr *model.FlowError
	if !errors.As(err, &flowErr) || flowErr.Code != model.ErrCodeInvalidInput {
		t.Fatalf("上限が下限未満の制約は拒否されるべき: %v", err)
	}
	if len(apiStub.ops) != 0 {
		t.Errorf("検証失敗時はネットワーク呼び出しを行うべきではない: %v", apiStub.ops)
	}
}

func TestUpdateOrganisers_Success(t *testing.T) {
	apiStub := &fakeAdminAPI{}
	flows, notifier, _ := newTestFlows(apiStub, true)

	if err := flows.UpdateOrganisers(context.Background(), 1, []int64{10, 11}); err != nil {
		t.Fatalf("UpdateOrganisers がエラーを返した: %v", err)
	}
	if len(apiStub.ops) != 1 || apiStub.ops[0] != "update-organisers" {
		t.Errorf("ops = %v", apiStub.ops)
	}
	if len(notifier.successes) != 1 {
		t.Errorf("成功通知数 = %d, want 1", len(notifier.successes))
	}
}

func TestCheckIn_Failure_Notifies(t *testing.T) {
	apiStub := &fakeAdminAPI{checkInErr: errors.New("500")}
	flows, notifier, _ := newTestFlows(apiStub, true)

	err := flows.CheckIn(context.Background(), 9)

	var flowErr *model.FlowError
	if !errors.As(err, &flowErr) || flowErr.Code != model.ErrCodeWriteFailed {
		t.Fatalf("チェックイン失敗エラーが返されるべき: %v", err)
	}
	if len(notifier.errors) != 1 {
		t.Errorf("失敗通知数 = %d, want 1", len(notifier.errors))
	}
}

func TestLoadBookings_Failure_Notifies(t *testing.T) {
	apiStub := &fakeAdminAPI{bookingsErr: errors.New("503")}
	flows, notifier, _ := newTestFlows(apiStub, true)

	_, err := flows.LoadBookings(context.Background())

	var flowErr *model.FlowError
	if !errors.As(err, &flowErr) || flowErr.Code != model.ErrCodeLoadFailed {
		t.Fatalf("読み取り失敗エラーが返されるべき: %v", err)
	}
	if len(notifier.errors) != 1 {
		t.Errorf("失敗通知数 = %d, want 1", len(notifier.errors))
	}
}
