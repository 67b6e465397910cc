package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hitoshi/eventman/internal/model"
)

// ResolveEventImage は保護画像への署名付きURLを取得する。
// keyはサーバーが発行する不透明なリソースキー。
// 返却されるURLはexpires_in秒で失効する。
func (c *Client) ResolveEventImage(ctx context.Context, key string) (*model.SignedImage, error) {
	path := "/secure/event-image/?key=" + url.QueryEscape(key)
	var signed model.SignedImage
	if err := c.appJSON(ctx, http.MethodGet, path, nil, &signed); err != nil {
		return nil, err
	}
	return &signed, nil
}
