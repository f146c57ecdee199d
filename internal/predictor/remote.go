package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ForexSignal/internal/model"
)

// RemoteModel calls a TensorFlow-Serving style REST endpoint:
// POST {BaseURL}/v1/models/{Name}:predict with {"instances": [...]}.
type RemoteModel struct {
	BaseURL string
	Name    string
	Client  *http.Client
}

type predictRequest struct {
	Instances [][][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
	Error       string            `json:"error"`
}

// Predict implements Predictor.
func (r *RemoteModel) Predict(ctx context.Context, windows []model.Window) ([]float64, error) {
	body := predictRequest{Instances: make([][][]float64, len(windows))}
	for i, w := range windows {
		body.Instances[i] = w.Rows
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode predict request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/models/%s:predict", strings.TrimRight(r.BaseURL, "/"), url.PathEscape(r.Name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", r.Name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read predict response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: remote model %s", model.ErrModelNotFound, r.Name)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("predict %s: HTTP %d: %s", r.Name, resp.StatusCode, truncate(string(raw), 200))
	}

	var out predictResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode predict response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("predict %s: %s", r.Name, out.Error)
	}

	values := make([]float64, len(out.Predictions))
	for i, p := range out.Predictions {
		v, err := scalar(p)
		if err != nil {
			return nil, fmt.Errorf("prediction %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

// scalar accepts either a bare number or a one-element array, the two shapes
// serving runtimes return for a single-output model.
func scalar(raw json.RawMessage) (float64, error) {
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}
	var arr []float64
	if err := json.Unmarshal(raw, &arr); err != nil {
		return 0, fmt.Errorf("unexpected prediction shape %s", truncate(string(raw), 50))
	}
	if len(arr) != 1 {
		return 0, fmt.Errorf("expected a single output, got %d", len(arr))
	}
	return arr[0], nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RemoteStore serves a RemoteModel per symbol from one serving endpoint.
type RemoteStore struct {
	BaseURL string
	Client  *http.Client
}

// Predictor implements Store. Whether the model exists is only known at
// Predict time, when the endpoint answers 404.
func (s *RemoteStore) Predictor(symbol string) (Predictor, error) {
	if s.BaseURL == "" {
		return nil, fmt.Errorf("%w: no remote endpoint configured for %s", model.ErrModelNotFound, symbol)
	}
	return &RemoteModel{BaseURL: s.BaseURL, Name: symbol, Client: s.Client}, nil
}
