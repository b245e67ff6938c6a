package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/HerbHall/netwatch/internal/version"
	"github.com/HerbHall/netwatch/pkg/models"
)

// Transport delivers registrations and snapshots to the server.
type Transport interface {
	Register(ctx context.Context, req models.RegisterRequest) (int64, error)
	Submit(ctx context.Context, deviceID int64, e Entry) error
}

// Client is the HTTP Transport for the device API.
type Client struct {
	endpoint  string
	apiKey    string
	userAgent string
	http      *http.Client
}

var _ Transport = (*Client)(nil)

// NewClient creates a client for the devices collection URL. Every request
// is bounded by timeout.
func NewClient(endpoint, apiKey, hostname string, timeout time.Duration) *Client {
	return &Client{
		endpoint:  strings.TrimRight(endpoint, "/"),
		apiKey:    apiKey,
		userAgent: fmt.Sprintf("netwatch-agent/%s (%s)", version.Short(), hostname),
		http:      &http.Client{Timeout: timeout},
	}
}

// Register registers the device and returns its server-assigned ID.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (int64, error) {
	var resp models.RegisterResponse
	if err := c.postJSON(ctx, c.endpoint, req, nil, &resp); err != nil {
		return 0, err
	}
	if resp.ID <= 0 {
		return 0, fmt.Errorf("%w: server returned device id %d", ErrTransport, resp.ID)
	}
	return resp.ID, nil
}

// Submit posts one snapshot.
func (c *Client) Submit(ctx context.Context, deviceID int64, e Entry) error {
	url := c.endpoint + "/" + strconv.FormatInt(deviceID, 10) + "/metrics"
	headers := map[string]string{"X-Snapshot-ID": e.ID}
	return c.postJSON(ctx, url, e.Submission, headers, nil)
}

func (c *Client) postJSON(ctx context.Context, url string, body any, headers map[string]string, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var apiErr models.ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		switch res.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s: %s", ErrDeviceUnknown, res.Status, msg)
		case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
			return fmt.Errorf("%w: %s: %s", ErrRejected, res.Status, msg)
		}
		return fmt.Errorf("%w: %s: %s", ErrTransport, res.Status, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	return nil
}
