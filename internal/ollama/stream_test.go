// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jeranaias/castchat/internal/transport"
)

// streamServer returns a test server that writes the given raw lines to the
// chat endpoint, flushing between writes to simulate chunked delivery.
func streamServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if !req.Stream {
			t.Error("request should set stream:true")
		}

		flusher := w.(http.Flusher)
		for _, line := range lines {
			w.Write([]byte(line))
			flusher.Flush()
		}
	}))
}

func collectChunks(t *testing.T, url string, req transport.Request) ([]transport.Chunk, error) {
	t.Helper()
	c := newTestClient(url)
	var chunks []transport.Chunk
	err := c.StreamCompletion(context.Background(), req, func(ch transport.Chunk) {
		chunks = append(chunks, ch)
	})
	return chunks, err
}

// =============================================================================
// STREAM TESTS
// =============================================================================

func TestStreamCompletion_Basic(t *testing.T) {
	srv := streamServer(t, []string{
		`{"message":{"role":"assistant","content":"Hel"},"done":false}` + "\n",
		`{"message":{"role":"assistant","content":"lo"},"done":false}` + "\n",
		`{"message":{"role":"assistant","content":""},"done":true}` + "\n",
	})
	defer srv.Close()

	chunks, err := collectChunks(t, srv.URL, transport.Request{
		Model:    "llama3:8b",
		Messages: []transport.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("StreamCompletion() error = %v", err)
	}

	var sb strings.Builder
	for _, ch := range chunks {
		sb.WriteString(ch.Content)
	}
	if sb.String() != "Hello" {
		t.Errorf("accumulated = %q, want 'Hello'", sb.String())
	}
	if !chunks[len(chunks)-1].Done {
		t.Error("last chunk should carry done:true")
	}
}

func TestStreamCompletion_SplitMidLine(t *testing.T) {
	// One JSON frame split across two network writes must still parse as a
	// single frame.
	srv := streamServer(t, []string{
		`{"message":{"role":"assistant","con`,
		`tent":"whole"},"done":false}` + "\n",
		`{"message":{"content":""},"done":true}` + "\n",
	})
	defer srv.Close()

	chunks, err := collectChunks(t, srv.URL, transport.Request{Model: "m"})
	if err != nil {
		t.Fatalf("StreamCompletion() error = %v", err)
	}

	if chunks[0].Content != "whole" {
		t.Errorf("chunks[0].Content = %q, want 'whole'", chunks[0].Content)
	}
}

func TestStreamCompletion_SkipsMalformedLines(t *testing.T) {
	srv := streamServer(t, []string{
		`{"message":{"content":"a"},"done":false}` + "\n",
		"this is not json\n",
		`{"message":{"content":"b"},"done":false}` + "\n",
		`{"done":true}` + "\n",
	})
	defer srv.Close()

	chunks, err := collectChunks(t, srv.URL, transport.Request{Model: "m"})
	if err != nil {
		t.Fatalf("StreamCompletion() error = %v", err)
	}

	var got string
	for _, ch := range chunks {
		got += ch.Content
	}
	if got != "ab" {
		t.Errorf("accumulated = %q, want 'ab' with malformed line skipped", got)
	}
}

func TestStreamCompletion_EOFWithoutDone(t *testing.T) {
	// A stream that ends cleanly without a done frame is still a completion.
	srv := streamServer(t, []string{
		`{"message":{"content":"partial"},"done":false}` + "\n",
	})
	defer srv.Close()

	chunks, err := collectChunks(t, srv.URL, transport.Request{Model: "m"})
	if err != nil {
		t.Fatalf("StreamCompletion() error = %v", err)
	}
	if len(chunks) != 1 || chunks[0].Content != "partial" {
		t.Errorf("chunks = %+v, want single 'partial' chunk", chunks)
	}
}

func TestStreamCompletion_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(serverError{Error: "model 'nope' not found"})
	}))
	defer srv.Close()

	_, err := collectChunks(t, srv.URL, transport.Request{Model: "nope"})
	if err == nil {
		t.Fatal("StreamCompletion() = nil error, want failure")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want server message surfaced", err)
	}
}

func TestStreamCompletion_SystemPromptOnWire(t *testing.T) {
	var gotSystem string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotSystem = req.System
		w.Write([]byte(`{"done":true}` + "\n"))
	}))
	defer srv.Close()

	_, err := collectChunks(t, srv.URL, transport.Request{
		Model:        "m",
		SystemPrompt: "You are terse.",
	})
	if err != nil {
		t.Fatalf("StreamCompletion() error = %v", err)
	}
	if gotSystem != "You are terse." {
		t.Errorf("system = %q, want prompt forwarded", gotSystem)
	}
}

func TestStreamCompletion_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Write([]byte(`{"message":{"content":"x"},"done":false}` + "\n"))
		flusher.Flush()
		cancel()
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.StreamCompletion(ctx, transport.Request{Model: "m"}, func(transport.Chunk) {})
	if err == nil {
		t.Error("StreamCompletion() = nil, want error after cancellation")
	}
}
