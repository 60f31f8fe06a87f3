package mask

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const (
	defaultRemoteTimeout = 30 * time.Second
	contentTypeMsgpack   = "application/msgpack"
	maxResponseBytes     = 256 << 20
)

// PredictRequest is the msgpack body posted to a remote mask service.
type PredictRequest struct {
	Frames  int         `msgpack:"frames"`
	Bins    int         `msgpack:"bins"`
	Feature [][]float32 `msgpack:"feature"`
}

// PredictResponse is the msgpack reply of a remote mask service.
type PredictResponse struct {
	Masks [][][]float32 `msgpack:"masks"`
	Error string        `msgpack:"error,omitempty"`
}

// Remote delegates prediction to an HTTP service.
type Remote struct {
	url         string
	numSpeakers int
	client      *http.Client
	log         *zap.Logger
}

// NewRemote returns a model that posts features to url.
func NewRemote(url string, opts Options) (*Remote, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	return &Remote{
		url:         url,
		numSpeakers: opts.NumSpeakers,
		client:      &http.Client{Timeout: timeout},
		log:         opts.logger(),
	}, nil
}

func (r *Remote) NumSpeakers() int { return r.numSpeakers }

func (r *Remote) Predict(ctx context.Context, feature [][]float64) ([][][]float64, error) {
	frames, bins, err := shape(feature)
	if err != nil {
		return nil, err
	}

	req := PredictRequest{Frames: frames, Bins: bins, Feature: make([][]float32, frames)}
	for t, row := range feature {
		req.Feature[t] = make([]float32, bins)
		for f, v := range row {
			req.Feature[t][f] = float32(v)
		}
	}
	body, err := msgpack.Marshal(&req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentTypeMsgpack)
	httpReq.Header.Set("Accept", contentTypeMsgpack)

	start := time.Now()
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("remote predict: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out PredictResponse
	if len(data) > 0 {
		if err := msgpack.Unmarshal(data, &out); err != nil && resp.StatusCode == http.StatusOK {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != "" {
			return nil, fmt.Errorf("remote predict: %s: %s", resp.Status, out.Error)
		}
		return nil, fmt.Errorf("remote predict: %s", resp.Status)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("remote predict: %s", out.Error)
	}

	r.log.Debug("remote prediction",
		zap.String("url", r.url),
		zap.Int("frames", frames),
		zap.Duration("elapsed", time.Since(start)))

	masks := make([][][]float64, len(out.Masks))
	for k, m := range out.Masks {
		masks[k] = make([][]float64, len(m))
		for t, row := range m {
			masks[k][t] = make([]float64, len(row))
			for f, v := range row {
				masks[k][t][f] = float64(v)
			}
		}
	}
	if err := Validate(masks, r.numSpeakers, frames, bins); err != nil {
		return nil, err
	}
	return masks, nil
}

func (r *Remote) Close() error {
	r.client.CloseIdleConnections()
	return nil
}
