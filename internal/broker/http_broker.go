package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"harbor-chat/internal/domain/call"
	harbor_errors "harbor-chat/pkg/errors"
)

// HTTPBroker talks to the call service's room management API.
type HTTPBroker struct {
	baseURL string
	client  *http.Client
}

func NewHTTPBroker(baseURL string) *HTTPBroker {
	return &HTTPBroker{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *HTTPBroker) ProvisionRoom(ctx context.Context, c call.Call) (string, error) {
	body, err := json.Marshal(map[string]string{
		"call_id":   c.ID.String(),
		"thread_id": c.ThreadID.String(),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/rooms", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("provision room: %w", harbor_errors.ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("provision room: status %d: %w", resp.StatusCode, harbor_errors.ErrServiceUnavailable)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("provision room: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		RoomID string `json:"room_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("provision room: decode response: %w", err)
	}
	return out.RoomID, nil
}

func (b *HTTPBroker) TeardownRoom(ctx context.Context, roomID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, b.baseURL+"/rooms/"+roomID, nil)
	if err != nil {
		return err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("teardown room %s: %w", roomID, harbor_errors.ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return harbor_errors.ErrRoomGone
	case resp.StatusCode >= 500:
		return fmt.Errorf("teardown room %s: status %d: %w", roomID, resp.StatusCode, harbor_errors.ErrServiceUnavailable)
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent:
		return fmt.Errorf("teardown room %s: unexpected status %d", roomID, resp.StatusCode)
	}
	return nil
}
