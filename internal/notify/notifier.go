package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Notification is the payload posted to CRM endpoints.
type Notification struct {
	Phone string `json:"phone"`
}

// Notifier posts notifications to external CRM endpoints.
// Safe for concurrent use.
type Notifier struct {
	httpClient *http.Client
}

func NewNotifier() *Notifier {
	return &Notifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Post delivers one notification. A non-2xx response counts as a failure.
func (n *Notifier) Post(ctx context.Context, endpoint string, note Notification) error {
	body, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("notify: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notify: post %s: unexpected status %d", endpoint, resp.StatusCode)
	}
	return nil
}
