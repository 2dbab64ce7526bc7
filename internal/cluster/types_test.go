package cluster

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestPostJSON tests the JSON POST helper against a live test server
func TestPostJSON(t *testing.T) {
	t.Run("posts body and decodes response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req RegisterRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("Failed to decode request: %v", err)
			}
			if req.Replica.ID != "replica-1" {
				t.Errorf("Expected replica-1, got %s", req.Replica.ID)
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		}))
		defer srv.Close()

		var out map[string]string
		err := PostJSON(context.Background(), srv.URL, RegisterRequest{
			Replica: ReplicaInfo{ID: "replica-1", Addr: "http://localhost:8081"},
		}, &out)
		if err != nil {
			t.Fatalf("PostJSON failed: %v", err)
		}
		if out["status"] != "ok" {
			t.Errorf("Expected ok, got %v", out)
		}
	})

	t.Run("non-2xx status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusBadRequest)
		}))
		defer srv.Close()

		err := PostJSON(context.Background(), srv.URL, RegisterRequest{}, nil)
		if err == nil {
			t.Error("Expected error for 400 response")
		}
	})
}

// TestPostBytes tests the opaque payload push used for notifications
func TestPostBytes(t *testing.T) {
	payload := []byte(`[{"type":"DeleteUser","payload":{"id":7}}]`)

	var received []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := PostBytes(context.Background(), srv.URL, payload); err != nil {
		t.Fatalf("PostBytes failed: %v", err)
	}
	if string(received) != string(payload) {
		t.Errorf("Expected payload delivered verbatim, got %s", received)
	}
}

// TestGetJSON tests the JSON GET helper
func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ReplicaInfo{ID: "replica-1", Addr: "http://localhost:8081"})
	}))
	defer srv.Close()

	var out ReplicaInfo
	if err := GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.ID != "replica-1" {
		t.Errorf("Expected replica-1, got %s", out.ID)
	}
}
