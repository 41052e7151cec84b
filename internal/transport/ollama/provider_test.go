package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/metrics"
	"github.com/kailas-cloud/talentrag/internal/provider"
)

func TestMain(m *testing.M) {
	metrics.RegisterProviderMetrics()
	os.Exit(m.Run())
}

func modelsHandler(t *testing.T, ids ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		data := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			data = append(data, map[string]any{"id": id, "object": "model"})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data})
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(&Config{})
	if p.Name() != provider.NameOllama {
		t.Errorf("Name() = %q", p.Name())
	}
	m := p.Models()
	if m.Embedding != DefaultEmbeddingModel || m.Generation != DefaultChatModel {
		t.Errorf("Models() = %+v", m)
	}
}

func TestProbe_ModelPresent(t *testing.T) {
	server := httptest.NewServer(modelsHandler(t, "llama3.2:latest", "nomic-embed-text:latest"))
	defer server.Close()

	p := New(&Config{BaseURL: server.URL, Logger: zap.NewNop()})
	if err := p.Probe(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProbe_ModelMissing(t *testing.T) {
	server := httptest.NewServer(modelsHandler(t, "llama3.2:latest"))
	defer server.Close()

	p := New(&Config{BaseURL: server.URL + "/v1", Logger: zap.NewNop()})
	err := p.Probe(context.Background())
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestProbe_DaemonDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	err := New(&Config{BaseURL: url}).Probe(context.Background())
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestExtractStructured_ParsesEmbeddedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "json_object") {
			t.Errorf("JSON mode must be off for local models")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "1", "object": "chat.completion", "model": DefaultChatModel,
			"choices": []map[string]any{{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": "Sure! Here is the data:\n{\"skills\":[{\"name\":\"Rust\"}]}\nHope it helps.",
				},
			}},
		})
	}))
	defer server.Close()

	ex, err := New(&Config{BaseURL: server.URL}).ExtractStructured(context.Background(), "Rust developer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ex.Structured.Skills) != 1 || ex.Structured.Skills[0].Name != "Rust" {
		t.Errorf("Skills = %+v", ex.Structured.Skills)
	}
}
