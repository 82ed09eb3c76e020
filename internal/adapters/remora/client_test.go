package remora

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remora/internal/domain/riskcontext"
	"remora/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		BaseURL: server.URL,
		Timeout: time.Second,
	})
	return client, server
}

func TestClient_Fetch_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/context", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "remora-go/1.0", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"safe_to_trade": true,
			"risk_score": 0.42,
			"reasoning": ["elevated funding rate", "thin order book"],
			"regime": "volatile"
		}`))
	})

	rc, err := client.Fetch(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", rc.Symbol)
	assert.True(t, rc.SafeToTrade)
	assert.InDelta(t, 0.42, rc.RiskScore, 1e-9)
	assert.Equal(t, []string{"elevated funding rate", "thin order book"}, rc.Reasoning)
	assert.Equal(t, "volatile", rc.Regime)
	assert.Equal(t, riskcontext.OriginLive, rc.Origin)
	assert.False(t, rc.RetrievedAt.IsZero())
}

func TestClient_Fetch_BearerHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"safe_to_trade": true, "risk_score": 0.1}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:  "rk_live_abc123",
		BaseURL: server.URL,
		Timeout: time.Second,
	})
	require.True(t, client.Authenticated())

	_, err := client.Fetch(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, "Bearer rk_live_abc123", gotAuth)
}

func TestClient_Fetch_Defaults(t *testing.T) {
	// Missing fields are fail-open: safe_to_trade defaults to true,
	// risk_score to zero
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	rc, err := client.Fetch(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, rc.SafeToTrade)
	assert.Equal(t, 0.0, rc.RiskScore)
	assert.Nil(t, rc.Reasoning)
}

func TestClient_Fetch_ScoreCoercion(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    float64
		wantErr bool
	}{
		{name: "number", body: `{"risk_score": 0.55}`, want: 0.55},
		{name: "numeric string", body: `{"risk_score": "0.55"}`, want: 0.55},
		{name: "null", body: `{"risk_score": null}`, want: 0},
		{name: "clamped above one", body: `{"risk_score": 3.2}`, want: 1},
		{name: "clamped below zero", body: `{"risk_score": -0.4}`, want: 0},
		{name: "non-numeric string", body: `{"risk_score": "very risky"}`, wantErr: true},
		{name: "object", body: `{"risk_score": {"value": 0.5}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			rc, err := client.Fetch(context.Background(), "BTCUSDT")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrMalformed))
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, rc.RiskScore, 1e-9)
		})
	}
}

func TestClient_Fetch_ReasoningCoercion(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "list of strings",
			body: `{"reasoning": ["a", "b"]}`,
			want: []string{"a", "b"},
		},
		{
			name: "single string",
			body: `{"reasoning": "one reason"}`,
			want: []string{"one reason"},
		},
		{
			name: "mixed scalar list",
			body: `{"reasoning": ["spread", 42, true]}`,
			want: []string{"spread", "42", "true"},
		},
		{
			name: "absent",
			body: `{}`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			rc, err := client.Fetch(context.Background(), "BTCUSDT")
			require.NoError(t, err)
			assert.Equal(t, tt.want, rc.Reasoning)
		})
	}
}

func TestClient_Fetch_RiskClassAlias(t *testing.T) {
	// Older API revisions label the market classification risk_class
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"risk_score": 0.2, "risk_class": "trending"}`))
	})

	rc, err := client.Fetch(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "trending", rc.Regime)
}

func TestClient_Fetch_MalformedBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"safe_to_trade": tru`))
	})

	_, err := client.Fetch(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMalformed))
	assert.Equal(t, "malformed", errors.Classify(err))
}

func TestClient_Fetch_InvalidSafeToTradeType(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"safe_to_trade": "yes"}`))
	})

	_, err := client.Fetch(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMalformed))
}

func TestClient_Fetch_HTTPError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
	})

	_, err := client.Fetch(context.Background(), "BTCUSDT")
	require.Error(t, err)

	var httpErr *errors.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode())
	assert.Equal(t, "http_error", errors.Classify(err))
}

func TestClient_Fetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL: server.URL,
		Timeout: 50 * time.Millisecond,
	})

	_, err := client.Fetch(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFetchTimeout))
	assert.Equal(t, "timeout", errors.Classify(err))
}

func TestClient_Fetch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewClient(Config{
		BaseURL: server.URL,
		Timeout: time.Second,
	})

	_, err := client.Fetch(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnreachable))
	assert.Equal(t, "unreachable", errors.Classify(err))
}

func TestNewClient_ConfigDefaults(t *testing.T) {
	client := NewClient(Config{})
	assert.Equal(t, defaultBaseURL, client.cfg.BaseURL)
	assert.Equal(t, defaultTimeout, client.cfg.Timeout)
}
