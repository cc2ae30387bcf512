package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/iudanet/passvault/pkg/api"
)

//go:generate moq -out shares_mock.go . ShareAPI

// ShareAPI определяет интерфейс remote share data source
type ShareAPI interface {
	// CreateVault создает новый vault; сервер назначает rotation id
	CreateVault(ctx context.Context, req api.CreateVaultRequest) (*api.ShareResponse, error)

	// GetShares возвращает все shares пользователя
	GetShares(ctx context.Context) ([]api.ShareResponse, error)

	// GetShareByID возвращает один share
	GetShareByID(ctx context.Context, shareID string) (*api.ShareResponse, error)

	// DeleteVault удаляет vault на сервере
	DeleteVault(ctx context.Context, shareID string) error

	// GetShareKeys возвращает все ключи share по rotations
	GetShareKeys(ctx context.Context, shareID string) ([]api.ShareKeyResponse, error)
}

// CreateVault создает новый vault
func (c *Client) CreateVault(ctx context.Context, req api.CreateVaultRequest) (*api.ShareResponse, error) {
	var resp api.ShareResponse
	if err := c.doRequest(ctx, "POST", "/api/v1/vaults", req, &resp); err != nil {
		return nil, fmt.Errorf("create vault request failed: %w", err)
	}
	return &resp, nil
}

// GetShares возвращает все shares пользователя
func (c *Client) GetShares(ctx context.Context) ([]api.ShareResponse, error) {
	var resp api.SharesResponse
	if err := c.doRequest(ctx, "GET", "/api/v1/shares", nil, &resp); err != nil {
		return nil, fmt.Errorf("get shares request failed: %w", err)
	}
	return resp.Shares, nil
}

// GetShareByID возвращает один share
func (c *Client) GetShareByID(ctx context.Context, shareID string) (*api.ShareResponse, error) {
	var resp api.ShareResponse
	path := fmt.Sprintf("/api/v1/shares/%s", url.PathEscape(shareID))
	if err := c.doRequest(ctx, "GET", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get share request failed: %w", err)
	}
	return &resp, nil
}

// DeleteVault удаляет vault на сервере
func (c *Client) DeleteVault(ctx context.Context, shareID string) error {
	path := fmt.Sprintf("/api/v1/vaults/%s", url.PathEscape(shareID))
	if err := c.doRequest(ctx, "DELETE", path, nil, nil); err != nil {
		return fmt.Errorf("delete vault request failed: %w", err)
	}
	return nil
}

// GetShareKeys возвращает все ключи share по rotations
func (c *Client) GetShareKeys(ctx context.Context, shareID string) ([]api.ShareKeyResponse, error) {
	var resp api.ShareKeysResponse
	path := fmt.Sprintf("/api/v1/shares/%s/keys", url.PathEscape(shareID))
	if err := c.doRequest(ctx, "GET", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get share keys request failed: %w", err)
	}
	return resp.Keys, nil
}
