package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

func TestGetStopsAfterOneTokenRefresh(t *testing.T) {
	var apiCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/access_token" {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"stale","token_type":"bearer"}`)
			return
		}
		atomic.AddInt32(&apiCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	conf := &clientcredentials.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     server.URL + "/api/v1/access_token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	rc := &RedditClient{
		Config: conf,
		Client: conf.Client(context.Background()),
		mu:     &sync.Mutex{},
	}

	// A credential that stays unauthorized after a fresh token must fail
	// instead of refresh-looping forever.
	_, err := rc.get(context.Background(), server.URL+"/r/golang/hot")
	if err == nil {
		t.Fatal("expected an error for a persistently unauthorized client")
	}
	if got := atomic.LoadInt32(&apiCalls); got != 2 {
		t.Errorf("API called %d times, want 2 (original request plus one post-refresh retry)", got)
	}
}
