package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	visahttp "github.com/aretw0/visaguide/pkg/adapters/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_KeepsSessionCookie(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err == nil {
			seen = append(seen, c.Value)
		} else {
			seen = append(seen, "")
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	for _, c := range []*visahttp.Client{
		visahttp.NewClient(srv.URL),
		visahttp.NewClient(srv.URL, visahttp.WithTimeout(time.Second)),
	} {
		seen = nil
		ctx := context.Background()
		require.NoError(t, c.ClearSession(ctx))
		require.NoError(t, c.Reset(ctx, "E"))
		assert.Equal(t, []string{"", "abc"}, seen)
	}
}
