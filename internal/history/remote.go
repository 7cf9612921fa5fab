package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Remote posts play records to a configured REST endpoint.
type Remote struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewRemote creates the remote play-history recorder.
func NewRemote(endpoint, apiKey string) *Remote {
	return &Remote{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (r *Remote) Record(ctx context.Context, e Entry) error {
	payload := struct {
		ID string `json:"id"`
		Entry
	}{
		ID:    uuid.NewString(),
		Entry: e,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode play record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("apikey", r.apiKey)
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post play record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("post play record: unexpected status %s", resp.Status)
	}
	return nil
}
