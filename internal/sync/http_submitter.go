// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/tomtom215/veripatrol/internal/models"
)

// HTTPSubmitter is the daemon's reference backend integration: one JSON POST
// per entity to <base>/<entity-type>/<entity-id>. Embedders with a different
// backend protocol implement Submitter themselves.
//
// Response mapping:
//   - 2xx: accepted; the body may carry {"remote_id": ...}
//   - 4xx: rejected; the body may carry {"reason": ...}
//   - 5xx and transport errors: submit error (retried next cycle, counts
//     against the circuit breaker)
type HTTPSubmitter struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSubmitter creates a submitter posting to baseURL.
func NewHTTPSubmitter(baseURL string, timeout time.Duration) (*HTTPSubmitter, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("sync: invalid backend URL %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultItemTimeout
	}

	return &HTTPSubmitter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type submitResponse struct {
	RemoteID string `json:"remote_id"`
	Reason   string `json:"reason"`
}

// Submit implements Submitter.
func (h *HTTPSubmitter) Submit(ctx context.Context, entityType models.EntityType, entityID string, payload []byte) (SubmitResult, error) {
	endpoint := h.baseURL + "/" + url.PathEscape(string(entityType)) + "/" + url.PathEscape(entityID)

	body := payload
	if body == nil {
		body = []byte("{}")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("sync: building submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("sync: submitting %s/%s: %w", entityType, entityID, err)
	}
	defer resp.Body.Close()

	// Bounded read; the backend's verdict is tiny.
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("sync: reading submit response: %w", err)
	}

	var decoded submitResponse
	if len(respBody) > 0 {
		// A non-JSON body is not an error; the status code is authoritative.
		_ = json.Unmarshal(respBody, &decoded)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return SubmitResult{Accepted: true, RemoteID: decoded.RemoteID}, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		reason := decoded.Reason
		if reason == "" {
			reason = fmt.Sprintf("backend returned %d", resp.StatusCode)
		}
		return SubmitResult{Accepted: false, Reason: reason}, nil
	default:
		return SubmitResult{}, fmt.Errorf("sync: backend returned %d for %s/%s", resp.StatusCode, entityType, entityID)
	}
}
