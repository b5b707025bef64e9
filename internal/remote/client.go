// Package remote is the agent's client for the attendance API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rollcall/rollcall-go/internal/model"
)

var (
	// ErrRejected means the API refused the request (4xx). Resending the
	// same payload will not help without a change on either side.
	ErrRejected = errors.New("remote rejected request")
	// ErrUnavailable covers transport failures and 5xx answers.
	ErrUnavailable = errors.New("remote unavailable")
)

// DeviceIDHeader identifies the submitting device to the API.
const DeviceIDHeader = "X-Device-ID"

const maxErrorBody = 4 << 10

// Config holds client settings.
type Config struct {
	BaseURL  string
	Token    string
	DeviceID string
	Timeout  time.Duration
	RPS      float64
}

// Client talks JSON over HTTP to the attendance API.
type Client struct {
	baseURL    *url.URL
	token      string
	deviceID   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse remote url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("remote url must be http or https, got %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	limit := rate.Inf
	burst := 1
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
		burst = max(1, int(cfg.RPS))
	}

	return &Client{
		baseURL:    base,
		token:      cfg.Token,
		deviceID:   cfg.DeviceID,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
	}, nil
}

// SubmitAttendance upserts one submission and returns the stored summary.
func (c *Client) SubmitAttendance(ctx context.Context, sub model.Submission) (model.AttendanceSummary, error) {
	var summary model.AttendanceSummary
	if err := c.do(ctx, http.MethodPost, "/api/v1/attendance", sub, &summary); err != nil {
		return model.AttendanceSummary{}, err
	}
	return summary, nil
}

// FetchRoster returns the members of a class.
func (c *Client) FetchRoster(ctx context.Context, classNumber string) ([]model.Member, error) {
	var resp model.RosterResponse
	path := "/api/v1/classes/" + url.PathEscape(classNumber) + "/members"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Members == nil {
		resp.Members = []model.Member{}
	}
	return resp.Members, nil
}

// Ping checks that the API answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.deviceID != "" {
		req.Header.Set(DeviceIDHeader, c.deviceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg := errorMessage(resp.Body)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("%w: %s %s: %d %s", ErrRejected, method, path, resp.StatusCode, msg)
		}
		return fmt.Errorf("%w: %s %s: %d %s", ErrUnavailable, method, path, resp.StatusCode, msg)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrUnavailable, path, err)
	}
	return nil
}

func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(raw))
}
