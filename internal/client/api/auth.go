package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/iudanet/passvault/pkg/api"
)

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if err := c.doRequest(ctx, "POST", "/api/v1/auth/register", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// GetSalt получает public_salt пользователя
func (c *Client) GetSalt(ctx context.Context, username string) (*api.GetSaltResponse, error) {
	var resp api.GetSaltResponse
	path := fmt.Sprintf("/api/v1/auth/salt/%s", url.PathEscape(username))
	if err := c.doRequest(ctx, "GET", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get salt request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, "POST", "/api/v1/auth/login", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// GetAddressKey получает публичный address-ключ по email.
// noCache запрашивает принудительное обновление на стороне сервера,
// минуя серверный кэш ключей (для недавно ротированных адресов).
func (c *Client) GetAddressKey(ctx context.Context, email string, noCache bool) (*api.AddressKeyResponse, error) {
	var resp api.AddressKeyResponse
	path := fmt.Sprintf("/api/v1/keys/address?email=%s", url.QueryEscape(email))
	if noCache {
		path += "&no_cache=true"
	}
	if err := c.doRequest(ctx, "GET", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get address key request failed: %w", err)
	}
	return &resp, nil
}

// GetSubscription получает подписку пользователя со списком планов
func (c *Client) GetSubscription(ctx context.Context) (*api.SubscriptionResponse, error) {
	var resp api.SubscriptionResponse
	if err := c.doRequest(ctx, "GET", "/api/v1/subscription", nil, &resp); err != nil {
		return nil, fmt.Errorf("get subscription request failed: %w", err)
	}
	return &resp, nil
}
