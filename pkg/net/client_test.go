package net

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPClient(t *testing.T) {
	client, err := GetHTTPClient()
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.NotNil(t, client.Jar)
}

func TestGetStaticOAuthClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := GetStaticOAuthClient(context.Background(), "test-token")
	require.NotNil(t, client)

	var v struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, GetJSON(context.Background(), client, srv.URL, &v))
	assert.True(t, v.OK)
}

func TestGetJSON_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/broken":
			_, _ = w.Write([]byte("{"))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	client, err := GetHTTPClient()
	require.NoError(t, err)

	var v map[string]any
	err = GetJSON(context.Background(), client, srv.URL+"/missing", &v)
	assert.ErrorIs(t, err, ErrorURLNotFound)

	err = GetJSON(context.Background(), client, srv.URL+"/broken", &v)
	assert.Error(t, err)

	err = GetJSON(context.Background(), client, srv.URL+"/fail", &v)
	assert.ErrorContains(t, err, "500")

	err = GetJSON(context.Background(), nil, srv.URL, &v)
	assert.Error(t, err)
}

func TestPrintHTTPResponse_Nil(t *testing.T) {
	PrintHTTPResponse(nil)
}

func TestPrintHTTPResponse_WithResponse(t *testing.T) {
	PrintHTTPResponse(&http.Response{
		StatusCode: 200,
		Header:     http.Header{},
		Body:       http.NoBody,
	})
}
