// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jeranaias/castchat/internal/transport"
)

func TestNewClient_SessionScoped(t *testing.T) {
	a := NewClient("https://gw.example.com")
	b := NewClient("https://gw.example.com")

	if a.SessionID() == "" {
		t.Fatal("session ID should be generated")
	}
	if a.SessionID() == b.SessionID() {
		t.Error("each client instance must get its own session ID")
	}
}

func TestStreamCompletion_RawChunks(t *testing.T) {
	var gotPath string
	var gotReq chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)

		flusher := w.(http.Flusher)
		for _, part := range []string{"The ", "quick ", "fox"} {
			w.Write([]byte(part))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	var got strings.Builder
	err := c.StreamCompletion(context.Background(), transport.Request{
		Model: "openai/gpt-4o",
		Messages: []transport.Message{
			{Role: "user", Content: "first"},
			{Role: "assistant", Content: "reply"},
			{Role: "user", Content: "newest"},
		},
	}, func(ch transport.Chunk) {
		got.WriteString(ch.Content)
	})
	if err != nil {
		t.Fatalf("StreamCompletion() error = %v", err)
	}

	if got.String() != "The quick fox" {
		t.Errorf("accumulated = %q, want 'The quick fox'", got.String())
	}

	wantPath := "/api/chat/" + c.SessionID() + "/chat"
	if gotPath != wantPath {
		t.Errorf("path = %q, want %q", gotPath, wantPath)
	}
	if gotReq.Message != "newest" {
		t.Errorf("wire message = %q, want newest history entry", gotReq.Message)
	}
	if gotReq.Model != "openai/gpt-4o" {
		t.Errorf("wire model = %q", gotReq.Model)
	}
	if !gotReq.Stream {
		t.Error("wire request should set stream:true")
	}
}

func TestStreamCompletion_RuneSplitAcrossReads(t *testing.T) {
	// "café" with the é (0xC3 0xA9) flushed one byte per write.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for _, part := range [][]byte{[]byte("caf"), {0xC3}, {0xA9}, []byte(" au lait")} {
			w.Write(part)
			flusher.Flush()
			time.Sleep(10 * time.Millisecond)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	var got strings.Builder
	err := c.StreamCompletion(context.Background(), transport.Request{
		Model:    "m",
		Messages: []transport.Message{{Role: "user", Content: "hi"}},
	}, func(ch transport.Chunk) {
		if !utf8.ValidString(ch.Content) {
			t.Errorf("chunk %q is not valid UTF-8", ch.Content)
		}
		got.WriteString(ch.Content)
	})
	if err != nil {
		t.Fatalf("StreamCompletion() error = %v", err)
	}

	if got.String() != "café au lait" {
		t.Errorf("accumulated = %q, want 'café au lait'", got.String())
	}
}

func TestCompletePrefixLen(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want int
	}{
		{"ascii", []byte("abc"), 3},
		{"complete multibyte", []byte("café"), 5},
		{"trailing 2-byte fragment", []byte{'a', 0xC3}, 1},
		{"trailing 4-byte fragment", []byte{'a', 0xF0, 0x9F, 0x92}, 1},
		{"lone continuation passes", []byte{0x80}, 1},
		{"invalid lead byte passes", []byte{0xFF}, 1},
		{"empty", nil, 0},
	}
	for _, tc := range tests {
		if got := completePrefixLen(tc.in); got != tc.want {
			t.Errorf("%s: completePrefixLen(% x) = %d, want %d", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestStreamCompletion_EmptyHistory(t *testing.T) {
	c := NewClient("https://gw.example.com")
	err := c.StreamCompletion(context.Background(), transport.Request{Model: "m"}, func(transport.Chunk) {})
	if err != ErrEmptyHistory {
		t.Errorf("error = %v, want ErrEmptyHistory", err)
	}
}

func TestStreamCompletion_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.StreamCompletion(context.Background(), transport.Request{
		Model:    "m",
		Messages: []transport.Message{{Role: "user", Content: "hi"}},
	}, func(transport.Chunk) {})

	var gwErr *GatewayError
	if err == nil {
		t.Fatal("StreamCompletion() = nil, want error for 502")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error = %v, want status in message", err)
	}
	if !errors.As(err, &gwErr) || gwErr.Message != "upstream unavailable" {
		t.Errorf("error = %#v, want GatewayError with body text", err)
	}
}

func TestStreamCompletion_SameSessionAcrossTurns(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	req := transport.Request{Model: "m", Messages: []transport.Message{{Role: "user", Content: "hi"}}}
	for i := 0; i < 3; i++ {
		if err := c.StreamCompletion(context.Background(), req, func(transport.Chunk) {}); err != nil {
			t.Fatalf("turn %d error = %v", i, err)
		}
	}

	for _, p := range paths[1:] {
		if p != paths[0] {
			t.Errorf("session path changed across turns: %v", paths)
		}
	}
}
