package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOpenAPIDoc = `{
  "swagger": "2.0",
  "info": {"title": "t", "version": "1"},
  "paths": {
    "/widgets/{id}": {
      "get": {
        "operationId": "getWidget",
        "summary": "Get a widget",
        "parameters": [
          {"name": "id", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {
          "200": {
            "description": "ok",
            "schema": {"type": "object", "properties": {"name": {"type": "string"}}}
          }
        }
      }
    }
  }
}`

func TestOpenAPIProviderDerivesToolFromOperation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/widgets/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "gizmo"})
	}))
	defer server.Close()

	p, err := NewOpenAPIProvider([]byte(sampleOpenAPIDoc), server.URL, server.Client(), nil)
	require.NoError(t, err)

	tools, err := p.ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "getWidget", tools[0].Name)

	result, err := tools[0].Fn(ctx, map[string]any{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "gizmo"}, result)
}
