package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hitoshi/eventman/internal/model"
)

// ListParentEvents は親イベントの一覧を取得する。
func (c *Client) ListParentEvents(ctx context.Context) ([]model.ParentEvent, error) {
	var events []model.ParentEvent
	if err := c.appJSON(ctx, http.MethodGet, "/parent-events/", nil, &events); err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Description = c.sanitize(events[i].Description)
	}
	return events, nil
}

// GetParentEvent は親イベントを1件取得する。
func (c *Client) GetParentEvent(ctx context.Context, id int64) (*model.ParentEvent, error) {
	var event model.ParentEvent
	if err := c.appJSON(ctx, http.MethodGet, fmt.Sprintf("/parent-events/%d/", id), nil, &event); err != nil {
		return nil, err
	}
	event.Description = c.sanitize(event.Description)
	return &event, nil
}

// ListEventsByParent は親イベント配下のイベント一覧を取得する。
func (c *Client) ListEventsByParent(ctx context.Context, parentID int64) ([]model.Event, error) {
	path := "/events/?parent_event=" + url.QueryEscape(fmt.Sprint(parentID))
	var events []model.Event
	if err := c.appJSON(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Description = c.sanitize(events[i].Description)
	}
	return events, nil
}

// GetEvent はイベントを1件取得する。
func (c *Client) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	var event model.Event
	if err := c.appJSON(ctx, http.MethodGet, fmt.Sprintf("/events/%d/", id), nil, &event); err != nil {
		return nil, err
	}
	event.Description = c.sanitize(event.Description)
	return &event, nil
}

// ListCategories はカテゴリ一覧を取得する。
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.appJSON(ctx, http.MethodGet, "/categories/", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// GetConstraint は参加人数制約を1件取得する。
func (c *Client) GetConstraint(ctx context.Context, id int64) (*model.ParticipationConstraint, error) {
	var constraint model.ParticipationConstraint
	if err := c.appJSON(ctx, http.MethodGet, fmt.Sprintf("/constraints/%d/", id), nil, &constraint); err != nil {
		return nil, err
	}
	return &constraint, nil
}

// ConstraintForEvent はイベントに紐付く参加人数制約を取得する。
// 制約が未設定の場合はnilを返す（single扱いのデフォルトは呼び出し元で適用する）。
func (c *Client) ConstraintForEvent(ctx context.Context, eventID int64) (*model.ParticipationConstraint, error) {
	path := "/constraints/?event=" + url.QueryEscape(fmt.Sprint(eventID))
	var constraints []model.ParticipationConstraint
	if err := c.appJSON(ctx, http.MethodGet, path, nil, &constraints); err != nil {
		return nil, err
	}
	if len(constraints) == 0 {
		return nil, nil
	}
	return &constraints[0], nil
}

// GetEventDetails はイベント補足情報を1件取得する。
func (c *Client) GetEventDetails(ctx context.Context, id int64) (*model.EventDetails, error) {
	var details model.EventDetails
	if err := c.appJSON(ctx, http.MethodGet, fmt.Sprintf("/event-details/%d/", id), nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// ListSlotsByEvent はイベントのスロット一覧を取得する。
func (c *Client) ListSlotsByEvent(ctx context.Context, eventID int64) ([]model.Slot, error) {
	path := "/event-slots/?event=" + url.QueryEscape(fmt.Sprint(eventID))
	var slots []model.Slot
	if err := c.appJSON(ctx, http.MethodGet, path, nil, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// GetSlot はスロットを1件取得する。
func (c *Client) GetSlot(ctx context.Context, id int64) (*model.Slot, error) {
	var slot model.Slot
	if err := c.appJSON(ctx, http.MethodGet, fmt.Sprintf("/event-slots/%d/", id), nil, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListOrganisers は主催者一覧を取得する。
func (c *Client) ListOrganisers(ctx context.Context) ([]model.Organiser, error) {
	var organisers []model.Organiser
	if err := c.appJSON(ctx, http.MethodGet, "/organisers/", nil, &organisers); err != nil {
		return nil, err
	}
	return organisers, nil
}
