package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{APIKey: "  "}, zap.NewNop())
	assert.Error(t, err)
}

func TestClient_GenerateText(t *testing.T) {
	// Arrange
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Mud 🟤"}}]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL + "/", APIKey: "secret", Model: "test-model"}, zap.NewNop())
	require.NoError(t, err)

	// Act
	reply, err := client.GenerateText(context.Background(), "system prompt", "💧 Water + 🌍 Earth")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Mud 🟤", reply)
	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "💧 Water + 🌍 Earth", got.Messages[1].Content)
}

func TestClient_GenerateText_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "non-2xx", status: http.StatusInternalServerError, body: `{"error":"boom"}`, wantErr: "http 500"},
		{name: "malformed body", status: http.StatusOK, body: `not json`, wantErr: "decode"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: "no choices"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(Config{BaseURL: server.URL, APIKey: "k"}, zap.NewNop())
			require.NoError(t, err)

			_, err = client.GenerateText(context.Background(), "s", "u")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClient_GenerateText_HonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "k"}, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.GenerateText(ctx, "s", "u")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

type flakyGenerator struct {
	calls atomic.Int32
	err   error
}

func (f *flakyGenerator) GenerateText(ctx context.Context, system, user string) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return "Steam ♨️", nil
}

func TestBreakingGenerator_OpensAfterConsecutiveFailures(t *testing.T) {
	// Arrange
	upstream := &flakyGenerator{err: errors.New("connection refused")}
	gen := NewBreakingGenerator(upstream, BreakerConfig{Name: "test", MaxFailures: 2, OpenTimeout: time.Minute}, zap.NewNop())
	ctx := context.Background()

	// Act
	_, err1 := gen.GenerateText(ctx, "s", "u")
	_, err2 := gen.GenerateText(ctx, "s", "u")
	_, err3 := gen.GenerateText(ctx, "s", "u")

	// Assert
	assert.Error(t, err1)
	assert.Error(t, err2)
	assert.ErrorIs(t, err3, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), upstream.calls.Load())
	assert.Equal(t, gobreaker.StateOpen, gen.State())
}

func TestBreakingGenerator_PassesThroughReplies(t *testing.T) {
	gen := NewBreakingGenerator(&flakyGenerator{}, DefaultBreakerConfig(), zap.NewNop())

	reply, err := gen.GenerateText(context.Background(), "s", "u")

	require.NoError(t, err)
	assert.Equal(t, "Steam ♨️", reply)
	assert.Equal(t, gobreaker.StateClosed, gen.State())
}
