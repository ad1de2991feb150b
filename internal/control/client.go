package control

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unreadwatch/internal/domain"
)

const clientTimeout = 5 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(addr string) *Client {
	return &Client{
		baseURL: "http://" + addr,
		http:    &http.Client{Timeout: clientTimeout},
	}
}

func (c *Client) Refresh(ctx context.Context) error {
	return c.post(ctx, "/refresh")
}

func (c *Client) SettingsChanged(ctx context.Context) error {
	return c.post(ctx, "/settings-changed")
}

func (c *Client) Status(ctx context.Context) (domain.Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return domain.Status{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Status{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if err = checkStatus(resp); err != nil {
		return domain.Status{}, err
	}

	var status domain.Status
	if err = json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return domain.Status{}, fmt.Errorf("decode status: %w", err)
	}

	return status, nil
}

func (c *Client) post(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	return fmt.Errorf("unexpected status: %s (body = %q)", resp.Status, string(body))
}
