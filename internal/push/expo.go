// Package push delivers notifications to mobile devices through the Expo
// push service.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/colib/colib-backend/pkg/logger"
)

// maxBatch is the largest number of messages Expo accepts per request.
const maxBatch = 100

// Message is one Expo push message.
type Message struct {
	To    string                 `json:"to"`
	Title string                 `json:"title,omitempty"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data"`
	Sound string                 `json:"sound,omitempty"`
}

// Result counts accepted and failed messages.
type Result struct {
	Success int
	Failed  int
}

// Sender delivers push messages.
type Sender interface {
	Send(ctx context.Context, messages []Message) Result
}

type ExpoClient struct {
	url         string
	accessToken string
	httpClient  *http.Client
}

func NewExpoClient(url, accessToken string, timeout time.Duration) *ExpoClient {
	return &ExpoClient{
		url:         url,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Send posts messages in batches of 100. A batch that fails as a whole counts
// every message in it as failed.
func (c *ExpoClient) Send(ctx context.Context, messages []Message) Result {
	var total Result
	for start := 0; start < len(messages); start += maxBatch {
		end := start + maxBatch
		if end > len(messages) {
			end = len(messages)
		}
		batch := messages[start:end]

		ok, err := c.sendBatch(ctx, batch)
		if err != nil {
			logger.Log.WithError(err).WithField("messages", len(batch)).Error("Expo push batch failed")
		}
		total.Success += ok
		total.Failed += len(batch) - ok
	}
	return total
}

func (c *ExpoClient) sendBatch(ctx context.Context, batch []Message) (int, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("expo push api error: status %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Data []struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to parse expo response: %w", err)
	}

	ok := 0
	for _, ticket := range result.Data {
		if ticket.Status == "ok" {
			ok++
		} else if ticket.Message != "" {
			logger.Log.WithField("reason", ticket.Message).Debug("Expo rejected push message")
		}
	}
	return ok, nil
}
