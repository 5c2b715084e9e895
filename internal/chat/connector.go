package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Connector pushes activities into a conversation on the chat channel. It is
// the only outbound chat primitive the bots use; delivery failures surface as
// errors and are never retried here.
type Connector interface {
	Send(ctx context.Context, conversationID string, activity Activity) error
}

// HTTPConnector delivers activities to a chat channel service over HTTP.
type HTTPConnector struct {
	baseURL string
	client  *http.Client
}

// NewHTTPConnector builds a connector for the given channel delivery URL.
func NewHTTPConnector(baseURL string, timeout time.Duration) *HTTPConnector {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPConnector{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Send posts one activity into the conversation.
func (c *HTTPConnector) Send(ctx context.Context, conversationID string, activity Activity) error {
	activity.ConversationID = conversationID
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}

	body, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v3/conversations/%s/activities",
		c.baseURL, url.PathEscape(conversationID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send activity: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send activity: channel returned status %d", resp.StatusCode)
	}
	return nil
}
