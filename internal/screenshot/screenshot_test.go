package screenshot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchPassesMaxAgeAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/screenshot" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("max_age_ms"); got != "3000" {
			t.Errorf("max_age_ms = %s, want 3000", got)
		}
		json.NewEncoder(w).Encode(Image{
			Data:      "aGVsbG8=",
			MediaType: "image/png",
		})
	}))
	defer srv.Close()

	img, err := NewClient(srv.URL).Fetch(context.Background(), 3*time.Second)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if img.MediaType != "image/png" || img.Data != "aGVsbG8=" {
		t.Errorf("unexpected image: %+v", img)
	}
}

func TestFetchStaleCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Fetch(context.Background(), time.Second); err == nil {
		t.Fatal("expected error for stale cache")
	}
}
