package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/iudanet/passvault/pkg/api"
)

//go:generate moq -out securelinks_mock.go . SecureLinkAPI

// SecureLinkAPI определяет интерфейс remote secure link data source
type SecureLinkAPI interface {
	// CreateSecureLink создает secure link, сервер возвращает свою часть URL
	CreateSecureLink(ctx context.Context, shareID, itemID string, req api.CreateSecureLinkRequest) (*api.CreateSecureLinkResponse, error)

	// GetAllSecureLinks возвращает все secure links пользователя
	GetAllSecureLinks(ctx context.Context) ([]api.SecureLinkResponse, error)
}

// CreateSecureLink создает secure link для item
func (c *Client) CreateSecureLink(ctx context.Context, shareID, itemID string, req api.CreateSecureLinkRequest) (*api.CreateSecureLinkResponse, error) {
	var resp api.CreateSecureLinkResponse
	path := fmt.Sprintf("/api/v1/shares/%s/items/%s/secure_link", url.PathEscape(shareID), url.PathEscape(itemID))
	if err := c.doRequest(ctx, "POST", path, req, &resp); err != nil {
		return nil, fmt.Errorf("create secure link request failed: %w", err)
	}
	return &resp, nil
}

// GetAllSecureLinks возвращает все secure links пользователя
func (c *Client) GetAllSecureLinks(ctx context.Context) ([]api.SecureLinkResponse, error) {
	var resp api.SecureLinksResponse
	if err := c.doRequest(ctx, "GET", "/api/v1/secure_links", nil, &resp); err != nil {
		return nil, fmt.Errorf("get secure links request failed: %w", err)
	}
	return resp.Links, nil
}
