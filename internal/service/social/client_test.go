package social

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchMapsPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts/RayDalio/posts" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `[
  {"id": "1", "text": "on market cycles", "summary": "cycles", "created_at": "2025-08-30T10:00:00Z", "like_count": 900},
  {"id": "2", "text": "on the Fed", "created_at": "2025-08-30T11:00:00Z", "like_count": 400}
]`)
	}))
	defer srv.Close()

	posts, err := New(srv.URL, 5*time.Second).Fetch(context.Background(), "RayDalio")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].Author != "RayDalio" || posts[0].Likes != 900 {
		t.Fatalf("unexpected post %+v", posts[0])
	}
}

func TestFetchUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := New(srv.URL, 5*time.Second).Fetch(context.Background(), "RayDalio"); err == nil {
		t.Fatalf("expected error")
	}
}
