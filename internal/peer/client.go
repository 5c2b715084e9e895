// Package peer implements the private HTTP channel between the two bot
// processes. Every call is a single attempt; callers decide how a failure
// degrades.
package peer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aparate/handover/internal/api/dto"
	"github.com/aparate/handover/internal/domain"
)

// Client calls the other bot process.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient builds a client for the peer base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// SubmitHandover sends a case with its reply token to the TA process.
func (c *Client) SubmitHandover(ctx context.Context, caseData domain.Case, replyToken string) (*dto.HandoverAccepted, error) {
	body := dto.HandoverSubmission{Case: caseData, ConversationRef: replyToken}
	var accepted dto.HandoverAccepted
	if err := c.post(ctx, "/api/handover", body, &accepted); err != nil {
		return nil, err
	}
	return &accepted, nil
}

// SendTAResponse delivers a terminal decision back to the user process.
func (c *Client) SendTAResponse(ctx context.Context, replyToken string, decision domain.Decision, comment string) error {
	body := dto.TAResponse{
		ConversationRef: replyToken,
		Decision:        string(decision),
		Comment:         comment,
	}
	return c.post(ctx, "/api/ta-response", body, nil)
}

func (c *Client) post(ctx context.Context, path string, body any, into any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call peer %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("peer %s returned status %d", path, resp.StatusCode)
	}
	if into == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decode peer response: %w", err)
	}
	return nil
}
