package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/plantops/maintenance-service/internal/config"
)

// LinePusher delivers a text push message to one LINE user.
type LinePusher interface {
	Push(ctx context.Context, lineUserID, text string) error
}

// LineClient calls the LINE Messaging API push endpoint. Flex-message
// layout is out of scope; only plain text is sent.
type LineClient struct {
	pushURL      string
	channelToken string
	httpClient   *http.Client
}

type linePushRequest struct {
	To       string        `json:"to"`
	Messages []lineMessage `json:"messages"`
}

type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewLineClient builds a client from notification config.
func NewLineClient(cfg config.NotificationConfig) *LineClient {
	return &LineClient{
		pushURL:      cfg.LinePushURL,
		channelToken: cfg.LineChannelToken,
		httpClient:   &http.Client{Timeout: cfg.SendTimeout()},
	}
}

// Push sends one text message to the user.
func (c *LineClient) Push(ctx context.Context, lineUserID, text string) error {
	if c.channelToken == "" {
		return errors.New("line channel token not configured")
	}
	if lineUserID == "" {
		return errors.New("empty line user id")
	}

	payload, err := json.Marshal(linePushRequest{
		To:       lineUserID,
		Messages: []lineMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return fmt.Errorf("marshal line push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pushURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build line push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.channelToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("line push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("line push rejected: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
