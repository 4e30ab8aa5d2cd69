package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/simvault/orderdesk/internal/dispatch"
	"github.com/simvault/orderdesk/internal/model"
)

type staticTokens struct {
	token string
	err   error
}

func (s *staticTokens) Token(ctx context.Context) (string, error) {
	return s.token, s.err
}

func TestPerformActionSuccess(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer server.Close()

	client := NewClient(server.URL, &staticTokens{token: "tok-1"}, zap.NewNop())

	err := client.PerformAction(context.Background(), model.ActionCancel, "remote-42")
	require.NoError(t, err)

	assert.Equal(t, "/orders/cancel", gotPath)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, map[string]string{"orderId": "remote-42"}, gotBody)
}

func TestPerformActionActivatePath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer server.Close()

	client := NewClient(server.URL, &staticTokens{token: "tok-1"}, zap.NewNop())

	require.NoError(t, client.PerformAction(context.Background(), model.ActionActivate, "remote-42"))
	assert.Equal(t, "/orders/activate", gotPath)
}

func TestPerformActionMessageMapping(t *testing.T) {
	tests := []struct {
		message  string
		expected dispatch.ErrorKind
	}{
		{message: "Order not found", expected: dispatch.KindValidation},
		{message: "invalid order id", expected: dispatch.KindValidation},
		{message: "Invalid order status", expected: dispatch.KindConflict},
		{message: "order is not inactive", expected: dispatch.KindConflict},
		{message: "Provider cancel failed", expected: dispatch.KindUpstream},
		{message: "provider activation failed", expected: dispatch.KindUpstream},
		{message: "Balance update failed", expected: dispatch.KindPersistence},
		{message: "totally new failure mode", expected: dispatch.KindUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]string{"message": tc.message})
			}))
			defer server.Close()

			client := NewClient(server.URL, &staticTokens{token: "tok-1"}, zap.NewNop())
			err := client.PerformAction(context.Background(), model.ActionCancel, "remote-42")

			var derr *dispatch.Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tc.expected, derr.Kind)
			assert.Equal(t, tc.message, derr.Message)
		})
	}
}

func TestPerformActionMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	client := NewClient(server.URL, &staticTokens{token: "tok-1"}, zap.NewNop())
	err := client.PerformAction(context.Background(), model.ActionCancel, "remote-42")

	var derr *dispatch.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, dispatch.KindUnknown, derr.Kind)
}

func TestPerformActionNoCredential(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(server.URL, &staticTokens{err: errors.New("auth service down")}, zap.NewNop())
	err := client.PerformAction(context.Background(), model.ActionCancel, "remote-42")

	var derr *dispatch.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, dispatch.KindAuth, derr.Kind)
	assert.False(t, called, "no request may be made without a credential")
}

func TestPerformActionMissingOrderID(t *testing.T) {
	client := NewClient("http://localhost:0", &staticTokens{token: "tok-1"}, zap.NewNop())

	err := client.PerformAction(context.Background(), model.ActionCancel, "  ")

	var derr *dispatch.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, dispatch.KindValidation, derr.Kind)
}

func TestPerformActionNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := NewClient(server.URL, &staticTokens{token: "tok-1"}, zap.NewNop())
	err := client.PerformAction(context.Background(), model.ActionCancel, "remote-42")

	var derr *dispatch.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, dispatch.KindUnknown, derr.Kind)
}
