package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Options configures the shared fal.ai queue client.
type Options struct {
	BaseURL      string
	APIKey       string
	HTTPClient   *http.Client
	PollInterval time.Duration
}

// Client talks to fal.ai's queue API: submit a request, poll its status,
// fetch the result. One Client is shared by every model adapter.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	token        string
	pollInterval time.Duration
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://queue.fal.run"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &Client{
		httpClient:   client,
		baseURL:      base,
		token:        strings.TrimSpace(opts.APIKey),
		pollInterval: poll,
	}
}

type queueSubmitResp struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type queueStatusResp struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Run submits input to the named model and blocks until the queued
// request completes, returning the raw result payload. The caller's
// context bounds the whole submit-poll-fetch cycle.
func (c *Client) Run(ctx context.Context, model string, input map[string]any) (map[string]any, error) {
	if c == nil {
		return nil, errors.New("fal client not configured")
	}
	if c.token == "" {
		return nil, errors.New("fal: API key is missing")
	}

	submitted, err := c.submit(ctx, model, input)
	if err != nil {
		return nil, err
	}
	if err := c.awaitCompletion(ctx, submitted.StatusURL); err != nil {
		return nil, err
	}
	return c.fetchResult(ctx, submitted.ResponseURL)
}

func (c *Client) submit(ctx context.Context, model string, input map[string]any) (*queueSubmitResp, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	endpoint := c.baseURL + "/" + strings.Trim(model, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fal: submit %s: http %d", model, resp.StatusCode)
	}
	var out queueSubmitResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.StatusURL == "" || out.ResponseURL == "" {
		return nil, errors.New("fal: submit response missing queue urls")
	}
	return &out, nil
}

func (c *Client) awaitCompletion(ctx context.Context, statusURL string) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.status(ctx, statusURL)
		if err != nil {
			return err
		}
		switch status.Status {
		case "COMPLETED":
			return nil
		case "IN_QUEUE", "IN_PROGRESS":
		default:
			if status.Error != "" {
				return fmt.Errorf("fal: request failed: %s", status.Error)
			}
			return fmt.Errorf("fal: unexpected queue status %q", status.Status)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) status(ctx context.Context, statusURL string) (*queueStatusResp, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fal: status: http %d", resp.StatusCode)
	}
	var out queueStatusResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) fetchResult(ctx context.Context, responseURL string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, responseURL, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fal: result: http %d", resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.token)
}

// nestedURL digs result["image"]["url"]-style payloads out of the raw
// response.
func nestedURL(result map[string]any, key string) string {
	obj, ok := result[key].(map[string]any)
	if !ok {
		return ""
	}
	url, _ := obj["url"].(string)
	return url
}

// firstImageURL returns result["images"][0]["url"].
func firstImageURL(result map[string]any) string {
	images, ok := result["images"].([]any)
	if !ok || len(images) == 0 {
		return ""
	}
	first, ok := images[0].(map[string]any)
	if !ok {
		return ""
	}
	url, _ := first["url"].(string)
	return url
}
