package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStaticTokenSource(t *testing.T) {
	src := NewStaticTokenSource("api-key-1")
	token, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "api-key-1", token)

	empty := NewStaticTokenSource("")
	_, err = empty.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestServiceTokenSourceCachesToken(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]interface{}{"token": "tok-7", "expires_in": 3600})
	}))
	defer server.Close()

	src := NewServiceTokenSource(server.URL, zap.NewNop())

	for i := 0; i < 3; i++ {
		token, err := src.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-7", token)
	}
	assert.Equal(t, int32(1), calls.Load(), "subsequent asks are served from cache")
}

func TestServiceTokenSourceFailures(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		src := NewServiceTokenSource(server.URL, zap.NewNop())
		_, err := src.Token(context.Background())
		assert.ErrorIs(t, err, ErrNoCredential)
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		src := NewServiceTokenSource(server.URL, zap.NewNop())
		_, err := src.Token(context.Background())
		assert.ErrorIs(t, err, ErrNoCredential)
	})
}
