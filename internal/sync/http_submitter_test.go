// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package sync

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/veripatrol/internal/models"
)

func TestNewHTTPSubmitterValidatesURL(t *testing.T) {
	for _, bad := range []string{"", "not-a-url", "/relative/path"} {
		if _, err := NewHTTPSubmitter(bad, time.Second); err == nil {
			t.Errorf("NewHTTPSubmitter(%q) should fail", bad)
		}
	}
	if _, err := NewHTTPSubmitter("https://backend.example.com/sync", time.Second); err != nil {
		t.Errorf("NewHTTPSubmitter(valid) = %v", err)
	}
}

func TestHTTPSubmitterAccepted(t *testing.T) {
	var gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"remote_id":"srv-42"}`))
	}))
	defer server.Close()

	sub, err := NewHTTPSubmitter(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewHTTPSubmitter: %v", err)
	}

	result, err := sub.Submit(context.Background(), models.EntityReport, "r-1", []byte(`{"text":"all clear"}`))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.Accepted || result.RemoteID != "srv-42" {
		t.Errorf("Result = %+v, want accepted with srv-42", result)
	}
	if gotPath != "/report/r-1" {
		t.Errorf("Path = %q, want /report/r-1", gotPath)
	}
	if gotBody != `{"text":"all clear"}` {
		t.Errorf("Body = %q, want the payload passed through", gotBody)
	}
}

func TestHTTPSubmitterRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"reason":"duplicate submission"}`))
	}))
	defer server.Close()

	sub, err := NewHTTPSubmitter(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewHTTPSubmitter: %v", err)
	}

	result, err := sub.Submit(context.Background(), models.EntityPhoto, "p-1", nil)
	if err != nil {
		t.Fatalf("A 4xx is a rejection, not a submit error: %v", err)
	}
	if result.Accepted {
		t.Error("Result should be rejected")
	}
	if result.Reason != "duplicate submission" {
		t.Errorf("Reason = %q, want backend-provided reason", result.Reason)
	}
}

func TestHTTPSubmitterServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sub, err := NewHTTPSubmitter(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewHTTPSubmitter: %v", err)
	}

	if _, err := sub.Submit(context.Background(), models.EntityReport, "r-1", nil); err == nil {
		t.Fatal("A 5xx should surface as a submit error")
	}
}

func TestHTTPSubmitterHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	sub, err := NewHTTPSubmitter(server.URL, 30*time.Second)
	if err != nil {
		t.Fatalf("NewHTTPSubmitter: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := sub.Submit(ctx, models.EntityReport, "r-1", nil); err == nil {
		t.Fatal("Submit should fail when the context expires")
	}
}
