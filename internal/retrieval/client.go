package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// SearchResult mirrors the retrieval backend's response. Documents and
// Metadatas are lists of lists: the outer index is the query batch,
// which is always length one here.
type SearchResult struct {
	Documents   [][]string         `json:"documents"`
	Metadatas   [][]map[string]any `json:"metadatas"`
	Distances   [][]float64        `json:"distances"`
	TotalFound  int                `json:"total_found"`
	RetrievalOK bool               `json:"retrieval_ok"`
	Error       string             `json:"error,omitempty"`
}

// FileInfo is the provenance of a retrieved chunk.
type FileInfo struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	Language string `json:"language"`
}

// ContextDocument is one retrieved text chunk plus its metadata, used to
// ground LLM answers.
type ContextDocument struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	FileInfo FileInfo       `json:"file_info"`
}

// HealthStatus is the result of probing the backend's health endpoint.
type HealthStatus struct {
	Online     bool
	StatusCode int
	Latency    time.Duration
	Err        error
}

// Client is a thin HTTP client for the document-search backend.
type Client struct {
	backendURL string
	collection string
	httpClient *http.Client
}

func NewClient(backendURL, collection string) *Client {
	return &Client{
		backendURL: backendURL,
		collection: collection,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type retrieveRequest struct {
	Query           string `json:"query"`
	CollectionName  string `json:"collection_name"`
	NResults        int    `json:"n_results"`
	IncludeMetadata bool   `json:"include_metadata"`
	Rerank          bool   `json:"rerank"`
}

// Search queries the backend. Network failures and non-200 responses
// are reported through RetrievalOK=false with zero documents; Search
// never returns an error to the caller.
func (c *Client) Search(ctx context.Context, query string, nResults int, rerank bool, collectionOverride string) SearchResult {
	collection := c.collection
	if collectionOverride != "" {
		collection = collectionOverride
	}

	body, err := json.Marshal(retrieveRequest{
		Query:           query,
		CollectionName:  collection,
		NResults:        nResults,
		IncludeMetadata: true,
		Rerank:          rerank,
	})
	if err != nil {
		return failedResult(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.backendURL+"/retrieve", bytes.NewReader(body))
	if err != nil {
		return failedResult(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("retrieval request failed", "error", err)
		return failedResult(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		slog.Debug("retrieval backend error", "status", resp.StatusCode)
		return failedResult(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(text)))
	}

	var result SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return failedResult(fmt.Sprintf("invalid response: %v", err))
	}

	result.RetrievalOK = true
	return result
}

// Health probes the backend's health endpoint. Diagnostics only.
func (c *Client) Health(ctx context.Context) HealthStatus {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.backendURL+"/health", nil)
	if err != nil {
		return HealthStatus{Err: err}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus{Err: err}
	}
	defer resp.Body.Close()

	return HealthStatus{
		Online:     resp.StatusCode == http.StatusOK,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

func failedResult(errText string) SearchResult {
	return SearchResult{
		Documents:   [][]string{},
		Metadatas:   [][]map[string]any{},
		Distances:   [][]float64{},
		RetrievalOK: false,
		Error:       errText,
	}
}

// HasDocuments reports whether the result carries at least one chunk.
func (r SearchResult) HasDocuments() bool {
	return len(r.Documents) > 0 && len(r.Documents[0]) > 0
}

// ContextDocuments converts up to maxResults chunks of the first query
// batch into context documents.
func (r SearchResult) ContextDocuments(maxResults int) []ContextDocument {
	if !r.HasDocuments() {
		return nil
	}

	docs := r.Documents[0]
	var metas []map[string]any
	if len(r.Metadatas) > 0 {
		metas = r.Metadatas[0]
	}

	if maxResults > 0 && len(docs) > maxResults {
		docs = docs[:maxResults]
	}

	contextDocs := make([]ContextDocument, 0, len(docs))
	for i, text := range docs {
		var metadata map[string]any
		if i < len(metas) {
			metadata = metas[i]
		}
		if metadata == nil {
			metadata = map[string]any{}
		}

		contextDocs = append(contextDocs, ContextDocument{
			Text:     text,
			Metadata: metadata,
			FileInfo: FileInfo{
				Name:     stringField(metadata, "file_name", "Unknown"),
				Path:     stringField(metadata, "file_path", ""),
				Type:     stringField(metadata, "file_type", "unknown"),
				Language: stringField(metadata, "language", "unknown"),
			},
		})
	}

	return contextDocs
}

func stringField(metadata map[string]any, key, fallback string) string {
	if value, ok := metadata[key].(string); ok && value != "" {
		return value
	}
	return fallback
}
