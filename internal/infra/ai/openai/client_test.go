package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

func TestSuggestAnalysis(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": `{"analysis":"Cabeças de leitura danificadas."}`,
				},
			}},
		})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", "gpt-4o-mini", srv.URL+"/v1")
	text, err := c.SuggestAnalysis(context.Background(), domain.Fields{Device: "HD WD", Category: domain.CategoryPhysical})
	require.NoError(t, err)
	assert.Equal(t, "Cabeças de leitura danificadas.", text)
	assert.Equal(t, "gpt-4o-mini", gotModel)
}
