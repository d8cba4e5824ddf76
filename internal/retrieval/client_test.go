package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/retrieve" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req["collection_name"] != "beagleboard" {
			t.Errorf("unexpected collection %v", req["collection_name"])
		}
		if req["include_metadata"] != true {
			t.Error("include_metadata must always be true")
		}

		json.NewEncoder(w).Encode(map[string]any{
			"documents": [][]string{{"PWM is available on P9_14."}},
			"metadatas": [][]map[string]any{{
				{"file_name": "pwm.rst", "language": "rst", "source_link": "https://docs.beagleboard.org/pwm"},
			}},
			"distances":   [][]float64{{0.12}},
			"total_found": 1,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "beagleboard")
	result := client.Search(context.Background(), "pwm pins", 5, true, "")

	if !result.RetrievalOK {
		t.Fatalf("expected retrieval ok, got error %q", result.Error)
	}
	if !result.HasDocuments() {
		t.Fatal("expected documents")
	}

	docs := result.ContextDocuments(5)
	if len(docs) != 1 {
		t.Fatalf("expected 1 context document, got %d", len(docs))
	}
	if docs[0].FileInfo.Name != "pwm.rst" {
		t.Errorf("unexpected file name %q", docs[0].FileInfo.Name)
	}
}

func TestSearchBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collection not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "missing")
	result := client.Search(context.Background(), "anything", 5, true, "")

	if result.RetrievalOK {
		t.Fatal("non-200 must not be retrieval ok")
	}
	if result.Error == "" {
		t.Error("error text must be populated")
	}
	if result.HasDocuments() {
		t.Error("failed search must carry no documents")
	}
}

func TestSearchNetworkFailure(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "beagleboard")
	result := client.Search(context.Background(), "anything", 5, true, "")

	if result.RetrievalOK {
		t.Fatal("network failure must not be retrieval ok")
	}
	if result.Error == "" {
		t.Error("error text must be populated")
	}
}

func TestSearchCollectionOverride(t *testing.T) {
	var gotCollection string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		gotCollection, _ = req["collection_name"].(string)
		json.NewEncoder(w).Encode(map[string]any{"documents": [][]string{}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "default")
	client.Search(context.Background(), "q", 3, false, "special")

	if gotCollection != "special" {
		t.Errorf("override collection not sent, got %q", gotCollection)
	}
}

func TestContextDocumentsMetadataFallbacks(t *testing.T) {
	result := SearchResult{
		Documents:   [][]string{{"chunk without metadata"}},
		RetrievalOK: true,
	}

	docs := result.ContextDocuments(5)
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].FileInfo.Name != "Unknown" {
		t.Errorf("missing metadata must fall back to Unknown, got %q", docs[0].FileInfo.Name)
	}
	if docs[0].Metadata == nil {
		t.Error("metadata map must never be nil")
	}
}

func TestContextDocumentsRespectsLimit(t *testing.T) {
	result := SearchResult{
		Documents:   [][]string{{"one", "two", "three", "four"}},
		RetrievalOK: true,
	}
	if got := len(result.ContextDocuments(2)); got != 2 {
		t.Errorf("expected 2 documents, got %d", got)
	}
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "beagleboard")
	status := client.Health(context.Background())

	if !status.Online {
		t.Errorf("expected online, got %+v", status)
	}
}
