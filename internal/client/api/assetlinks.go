package api

import (
	"context"
	"fmt"

	"github.com/iudanet/passvault/pkg/api"
)

// GetAssetLinks возвращает все ассоциации host -> package
func (c *Client) GetAssetLinks(ctx context.Context) ([]api.AssetLinkResponse, error) {
	var resp api.AssetLinksResponse
	if err := c.doRequest(ctx, "GET", "/api/v1/asset_links", nil, &resp); err != nil {
		return nil, fmt.Errorf("get asset links request failed: %w", err)
	}
	return resp.Links, nil
}
