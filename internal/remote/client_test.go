package remote

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/lemon/internal/menu"
)

const capstoneJSON = `{
  "menu": [
    {"name": "Greek Salad", "price": "12.99", "description": "The famous greek salad", "image": "greekSalad.jpg", "category": "starters"},
    {"name": "Lemon Dessert", "price": 6.99, "description": "Traditional homemade", "image": "lemonDessert.jpg", "category": "desserts"},
    {"name": "Grilled Fish", "price": 20, "description": "", "image": "grilledFish.jpg", "category": "mains"}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	return New(Config{URL: srv.URL, Timeout: 2 * time.Second, Logger: logger}), &logs
}

func TestFetchAll_Success(t *testing.T) {
	var hits atomic.Int32
	client, logs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(capstoneJSON))
	})

	items := client.FetchAll(context.Background())

	require.Len(t, items, 3)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, menu.Item{
		Name:        "Greek Salad",
		Price:       "12.99",
		Description: "The famous greek salad",
		Category:    "starters",
		Image:       "greekSalad.jpg",
	}, items[0])
	assert.Equal(t, "6.99", items[1].Price)
	assert.Equal(t, "20", items[2].Price)
	assert.Contains(t, logs.String(), "menu fetched")
}

func TestFetchAll_FailuresYieldEmptyList(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.NotFound(w, nil)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"menu": [`))
			},
		},
		{
			name: "missing menu field",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"items": []}`))
			},
		},
		{
			name: "price of wrong type",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"menu": [{"name": "x", "price": true, "category": "mains"}]}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, logs := newTestClient(t, tt.handler)

			items := client.FetchAll(context.Background())
			assert.NotNil(t, items)
			assert.Empty(t, items)
			assert.Contains(t, logs.String(), "menu fetch failed")
		})
	}
}

func TestFetchAll_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(Config{URL: url, Timeout: time.Second, Logger: slog.New(slog.DiscardHandler)})
	items := client.FetchAll(context.Background())
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestFetchAll_NoURL(t *testing.T) {
	client := New(Config{Logger: slog.New(slog.DiscardHandler)})
	assert.Empty(t, client.FetchAll(context.Background()))
}

func TestFetchAll_CanceledContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(capstoneJSON))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, client.FetchAll(ctx))
}

func TestFetchAll_EmptyMenu(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"menu": []}`))
	})
	items := client.FetchAll(context.Background())
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestTextValue(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`"12.99"`, "12.99", false},
		{`12.99`, "12.99", false},
		{`7`, "7", false},
		{`null`, "", false},
		{`true`, "", true},
		{`{}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var v textValue
			err := v.UnmarshalJSON([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(v))
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{URL: "  http://example.test/menu.json "})
	assert.Equal(t, "http://example.test/menu.json", c.URL())
	assert.Equal(t, defaultTimeout, c.http.Timeout)
}
