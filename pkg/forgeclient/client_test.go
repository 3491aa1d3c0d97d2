package forgeclient_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forgeline-io/forge/pkg/forge"
	"github.com/forgeline-io/forge/pkg/forgeclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("nil config rejected", func(t *testing.T) {
		t.Parallel()

		client, err := forgeclient.New(nil)
		require.Error(t, err)
		assert.Nil(t, client)
		assert.ErrorIs(t, err, forge.ErrConfigRequired)
	})

	t.Run("construction succeeds without credentials", func(t *testing.T) {
		t.Parallel()

		client, err := forgeclient.New(&forge.Config{})
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestNewWithConnection(t *testing.T) {
	t.Parallel()

	var server *httptest.Server

	server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "Bearer client-token-01", request.Header.Get("Authorization"))

		if request.URL.Query().Get("page") == "" {
			writer.Header().Set("Link", fmt.Sprintf(`<%s/widgets?page=2>; rel="next"`, server.URL))
			_ = json.NewEncoder(writer).Encode([]map[string]any{{"id": 1}, {"id": 2}})

			return
		}

		_ = json.NewEncoder(writer).Encode([]map[string]any{{"id": 3}})
	}))
	defer server.Close()

	client, err := forgeclient.NewWithConnection(server.URL, "client-token-01")
	require.NoError(t, err)

	env, err := client.Get(context.Background(), "/widgets", nil)
	require.NoError(t, err)
	assert.True(t, env.Status.OK)
	assert.Len(t, env.Records(), 3)
}

//nolint:paralleltest // t.Setenv mutates process environment
func TestNewFromEnvironment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_ = json.NewEncoder(writer).Encode(map[string]any{"username": "env-user"})
	}))
	defer server.Close()

	t.Setenv("FORGE_API_URL", server.URL)
	t.Setenv("FORGE_API_TOKEN", "env-token-123456")

	client, err := forgeclient.NewFromEnvironment()
	require.NoError(t, err)

	env, err := client.Get(context.Background(), "/user", nil)
	require.NoError(t, err)

	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "env-user", data["username"])
}
