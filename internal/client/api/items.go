package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/iudanet/passvault/pkg/api"
)

//go:generate moq -out items_mock.go . ItemAPI

// ItemAPI определяет интерфейс remote item data source
type ItemAPI interface {
	// GetItemsPage возвращает одну страницу items; pageToken пуст для первой
	GetItemsPage(ctx context.Context, shareID, pageToken string) (*api.ItemsPageResponse, error)

	// CreateItem создает item, сервер назначает id и revision
	CreateItem(ctx context.Context, shareID string, req api.CreateItemRequest) (*api.ItemResponse, error)

	// UpdateItem обновляет item, сервер инкрементирует revision
	UpdateItem(ctx context.Context, shareID, itemID string, req api.UpdateItemRequest) (*api.ItemResponse, error)

	// UpdateItemState переводит item между active и trashed
	UpdateItemState(ctx context.Context, shareID, itemID string, req api.UpdateItemStateRequest) (*api.ItemResponse, error)

	// DeleteItem удаляет item
	DeleteItem(ctx context.Context, shareID, itemID string) error
}

// GetItemsPage возвращает одну страницу items
func (c *Client) GetItemsPage(ctx context.Context, shareID, pageToken string) (*api.ItemsPageResponse, error) {
	var resp api.ItemsPageResponse
	path := fmt.Sprintf("/api/v1/shares/%s/items", url.PathEscape(shareID))
	if pageToken != "" {
		path += "?page_token=" + url.QueryEscape(pageToken)
	}
	if err := c.doRequest(ctx, "GET", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get items page request failed: %w", err)
	}
	return &resp, nil
}

// CreateItem создает item
func (c *Client) CreateItem(ctx context.Context, shareID string, req api.CreateItemRequest) (*api.ItemResponse, error) {
	var resp api.ItemResponse
	path := fmt.Sprintf("/api/v1/shares/%s/items", url.PathEscape(shareID))
	if err := c.doRequest(ctx, "POST", path, req, &resp); err != nil {
		return nil, fmt.Errorf("create item request failed: %w", err)
	}
	return &resp, nil
}

// UpdateItem обновляет item
func (c *Client) UpdateItem(ctx context.Context, shareID, itemID string, req api.UpdateItemRequest) (*api.ItemResponse, error) {
	var resp api.ItemResponse
	path := fmt.Sprintf("/api/v1/shares/%s/items/%s", url.PathEscape(shareID), url.PathEscape(itemID))
	if err := c.doRequest(ctx, "PUT", path, req, &resp); err != nil {
		return nil, fmt.Errorf("update item request failed: %w", err)
	}
	return &resp, nil
}

// UpdateItemState переводит item между active и trashed
func (c *Client) UpdateItemState(ctx context.Context, shareID, itemID string, req api.UpdateItemStateRequest) (*api.ItemResponse, error) {
	var resp api.ItemResponse
	path := fmt.Sprintf("/api/v1/shares/%s/items/%s/state", url.PathEscape(shareID), url.PathEscape(itemID))
	if err := c.doRequest(ctx, "PUT", path, req, &resp); err != nil {
		return nil, fmt.Errorf("update item state request failed: %w", err)
	}
	return &resp, nil
}

// DeleteItem удаляет item
func (c *Client) DeleteItem(ctx context.Context, shareID, itemID string) error {
	path := fmt.Sprintf("/api/v1/shares/%s/items/%s", url.PathEscape(shareID), url.PathEscape(itemID))
	if err := c.doRequest(ctx, "DELETE", path, nil, nil); err != nil {
		return fmt.Errorf("delete item request failed: %w", err)
	}
	return nil
}
