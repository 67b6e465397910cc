package api

import (
	"context"
	"net/http"

	"github.com/hitoshi/eventman/internal/model"
)

// GetOrCreateCart はユーザーの進行中カートを取得する。存在しなければサーバーが作成する。
func (c *Client) GetOrCreateCart(ctx context.Context) (*model.Cart, error) {
	var cart model.Cart
	if err := c.appJSON(ctx, http.MethodPost, "/cart/get-or-create/", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// CreateCartItem はカートにイベント選択を1件追加する。
func (c *Client) CreateCartItem(ctx context.Context, cartID, eventID int64, participantsCount int) (*model.CartItem, error) {
	body := map[string]any{
		"cart":               cartID,
		"event":              eventID,
		"participants_count": participantsCount,
	}
	var item model.CartItem
	if err := c.appJSON(ctx, http.MethodPost, "/cartitems/", body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateTempBooking はカートアイテムに紐付く仮予約の参加者レコードを作成する。
// 任意項目が空の場合はnullとして送信する。
func (c *Client) CreateTempBooking(ctx context.Context, cartItemID int64, p model.ParticipantDetail) (*model.TempBooking, error) {
	body := map[string]any{
		"cart_item":    cartItemID,
		"name":         p.Name,
		"email":        nullable(p.Email),
		"phone_number": nullable(p.PhoneNumber),
	}
	var booking model.TempBooking
	if err := c.appJSON(ctx, http.MethodPost, "/tempbookings/", body, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// CreateTempTimeslot はカートアイテムとスロットの暫定的な紐付けを作成する。
func (c *Client) CreateTempTimeslot(ctx context.Context, cartItemID, slotID int64) (*model.TempTimeslot, error) {
	body := map[string]any{
		"cart_item": cartItemID,
		"slot":      slotID,
	}
	var timeslot model.TempTimeslot
	if err := c.appJSON(ctx, http.MethodPost, "/temp-timeslots/", body, &timeslot); err != nil {
		return nil, err
	}
	return &timeslot, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
