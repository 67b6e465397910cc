package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/hitoshi/eventman/internal/model"
)

// EventInput はイベント作成・更新の入力を表す。
type EventInput struct {
	ParentEvent int64
	Name        string
	Description string
	Category    int64
}

// ImageAttachment はイベントに添付する画像ファイルを表す。
type ImageAttachment struct {
	Filename string
	Data     []byte
}

// CreateEvent はイベントを作成する。
// 画像添付に対応するため、ボディはmultipartフォームで送信する。
func (c *Client) CreateEvent(ctx context.Context, in EventInput, image *ImageAttachment) (*model.Event, error) {
	body, contentType, err := encodeEventForm(in, image)
	if err != nil {
		return nil, err
	}
	var event model.Event
	if err := c.appRequest(ctx, http.MethodPost, "/events/", contentType, body, &event); err != nil {
		return nil, err
	}
	event.Description = c.sanitize(event.Description)
	return &event, nil
}

// UpdateEvent はイベントを更新する。画像を差し替える場合のみimageを指定する。
func (c *Client) UpdateEvent(ctx context.Context, id int64, in EventInput, image *ImageAttachment) (*model.Event, error) {
	body, contentType, err := encodeEventForm(in, image)
	if err != nil {
		return nil, err
	}
	var event model.Event
	path := fmt.Sprintf("/events/%d/", id)
	if err := c.appRequest(ctx, http.MethodPatch, path, contentType, body, &event); err != nil {
		return nil, err
	}
	event.Description = c.sanitize(event.Description)
	return &event, nil
}

// UpdateEventOrganisers はイベントの主催者集合を置き換える。
// この操作に限りサーバーはmultipartを受け付けない（415を返す）ため、常にJSONで送信する。
func (c *Client) UpdateEventOrganisers(ctx context.Context, eventID int64, organiserIDs []int64) error {
	if organiserIDs == nil {
		organiserIDs = []int64{}
	}
	body := map[string]any{"organisers": organiserIDs}
	return c.appJSON(ctx, http.MethodPatch, fmt.Sprintf("/events/%d/", eventID), body, nil)
}

// DeleteEvent はイベントを削除する。
// 依存レコードが存在する場合、サーバーは409を返す（IsConflictで判別できる）。
func (c *Client) DeleteEvent(ctx context.Context, id int64) error {
	return c.appJSON(ctx, http.MethodDelete, fmt.Sprintf("/events/%d/", id), nil, nil)
}

// SlotInput はスロット作成・更新の入力を表す。
type SlotInput struct {
	Event                 int64  `json:"event"`
	Date                  string `json:"date"`
	StartTime             string `json:"start_time"`
	EndTime               string `json:"end_time"`
	UnlimitedParticipants bool   `json:"unlimited_participants"`
	MaxParticipants       *int   `json:"max_participants"`
}

// CreateSlot はスロットを作成する。
func (c *Client) CreateSlot(ctx context.Context, in SlotInput) (*model.Slot, error) {
	var slot model.Slot
	if err := c.appJSON(ctx, http.MethodPost, "/event-slots/", in, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

// UpdateSlot はスロットを更新する。
func (c *Client) UpdateSlot(ctx context.Context, id int64, in SlotInput) (*model.Slot, error) {
	var slot model.Slot
	if err := c.appJSON(ctx, http.MethodPatch, fmt.Sprintf("/event-slots/%d/", id), in, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

// DeleteSlot はスロットを削除する。
// 既存予約が紐付くスロットに対してサーバーは409を返す。
func (c *Client) DeleteSlot(ctx context.Context, id int64) error {
	return c.appJSON(ctx, http.MethodDelete, fmt.Sprintf("/event-slots/%d/", id), nil, nil)
}

// ConstraintInput は参加人数制約の作成・更新の入力を表す。
type ConstraintInput struct {
	Event       int64             `json:"event"`
	BookingType model.BookingType `json:"booking_type"`
	Fixed       bool              `json:"fixed"`
	LowerLimit  *int              `json:"lower_limit"`
	UpperLimit  *int              `json:"upper_limit"`
}

// CreateConstraint は参加人数制約を作成する。
func (c *Client) CreateConstraint(ctx context.Context, in ConstraintInput) (*model.ParticipationConstraint, error) {
	var constraint model.ParticipationConstraint
	if err := c.appJSON(ctx, http.MethodPost, "/constraints/", in, &constraint); err != nil {
		return nil, err
	}
	return &constraint, nil
}

// UpdateConstraint は参加人数制約を更新する。
func (c *Client) UpdateConstraint(ctx context.Context, id int64, in ConstraintInput) (*model.ParticipationConstraint, error) {
	var constraint model.ParticipationConstraint
	if err := c.appJSON(ctx, http.MethodPatch, fmt.Sprintf("/constraints/%d/", id), in, &constraint); err != nil {
		return nil, err
	}
	return &constraint, nil
}

// DetailsInput はイベント補足情報の作成・更新の入力を表す。
type DetailsInput struct {
	Event    int64  `json:"event"`
	Venue    string `json:"venue"`
	Rules    string `json:"rules"`
	Contact  string `json:"contact"`
	Schedule string `json:"schedule"`
}

// CreateEventDetails はイベント補足情報を作成する。
func (c *Client) CreateEventDetails(ctx context.Context, in DetailsInput) (*model.EventDetails, error) {
	var details model.EventDetails
	if err := c.appJSON(ctx, http.MethodPost, "/event-details/", in, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// UpdateEventDetails はイベント補足情報を更新する。
func (c *Client) UpdateEventDetails(ctx context.Context, id int64, in DetailsInput) (*model.EventDetails, error) {
	var details model.EventDetails
	if err := c.appJSON(ctx, http.MethodPatch, fmt.Sprintf("/event-details/%d/", id), in, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// ListAdminBookings は管理画面に表示する確定済み予約の一覧を取得する。
func (c *Client) ListAdminBookings(ctx context.Context) ([]model.AdminBooking, error) {
	var bookings []model.AdminBooking
	if err := c.appJSON(ctx, http.MethodGet, "/bookings/", nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// CheckInParticipant は参加者をチェックイン済みにする。
func (c *Client) CheckInParticipant(ctx context.Context, participantID int64) error {
	path := fmt.Sprintf("/booked-participants/%d/check-in/", participantID)
	return c.appJSON(ctx, http.MethodPost, path, nil, nil)
}

// encodeEventForm はイベントの入力と任意の画像添付をmultipartフォームに組み立てる。
// 再送時に同一ボディを使えるよう、バイト列とContent-Typeを返す。
func encodeEventForm(in EventInput, image *ImageAttachment) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"parent_event": fmt.Sprint(in.ParentEvent),
		"name":         in.Name,
		"description":  in.Description,
		"category":     fmt.Sprint(in.Category),
	}
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("フォームフィールドの書き込みに失敗しました: %w", err)
		}
	}

	if image != nil {
		part, err := w.CreateFormFile("image", image.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("画像パートの作成に失敗しました: %w", err)
		}
		if _, err := part.Write(image.Data); err != nil {
			return nil, "", fmt.Errorf("画像データの書き込みに失敗しました: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("multipartフォームの確定に失敗しました: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
