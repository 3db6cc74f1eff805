package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "github.com/kevin07696/transaction-gateway/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do_SendsJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/things", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "v", body["k"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient("test", server.URL+"/", "secret", server.Client(), nil)
	resp, err := client.Do(context.Background(), http.MethodPost, "/things", map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.True(t, resp.OK())

	var decoded struct{ OK bool }
	require.NoError(t, resp.Decode(&decoded))
	assert.True(t, decoded.OK)
}

func TestClient_Do_ReturnsNon2xxAsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient("test", server.URL, "", server.Client(), nil)
	resp, err := client.Do(context.Background(), http.MethodGet, "/", nil)
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Error(t, resp.Decode(&struct{}{}))
}

func TestClient_Do_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	httpClient := server.Client()
	httpClient.Timeout = 20 * time.Millisecond

	client := NewClient("slow", server.URL, "", httpClient, nil)
	_, err := client.Do(context.Background(), http.MethodGet, "/", nil)
	require.Error(t, err)

	var ge *pkgerrors.GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "slow", ge.Upstream)
	assert.Equal(t, pkgerrors.CategoryNetworkError, ge.Category)
	assert.True(t, ge.IsRetriable)
}
