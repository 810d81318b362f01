// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jeranaias/castchat/internal/transport"
)

// Configuration constants for the gateway client.
const (
	// DefaultTimeout is the timeout for establishing connections.
	DefaultTimeout = 60 * time.Second

	// readBufferSize is the buffer used for raw streamed reads. Chunks are
	// emitted per read, so this bounds the largest single chunk.
	readBufferSize = 4 * 1024
)

// sharedStreamingClient is used for streaming requests (no timeout,
// context-controlled), with connection pooling across turns.
var sharedStreamingClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrEmptyHistory indicates a streaming request with no messages to send.
var ErrEmptyHistory = errors.New("gateway: no messages in request")

// GatewayError represents a non-success response from the gateway.
type GatewayError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("gateway error (HTTP %d)", e.Status)
}

// =============================================================================
// CLIENT
// =============================================================================

// chatRequest is the body for POST /api/chat/{session}/chat.
type chatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model"`
	Stream  bool   `json:"stream"`
}

// Client is a streaming client for the remote model gateway. It is safe
// for concurrent use; all turns share one session identifier.
type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
}

// NewClient creates a gateway client with a freshly generated session ID.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		sessionID:  uuid.NewString(),
		httpClient: sharedStreamingClient,
	}
}

// SessionID returns the session identifier scoping this client's turns.
func (c *Client) SessionID() string {
	return c.sessionID
}

// chatURL builds the per-session chat endpoint URL.
func (c *Client) chatURL() string {
	return c.baseURL + "/api/chat/" + c.sessionID + "/chat"
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// StreamCompletion sends the newest history entry to the gateway and calls
// fn for each raw chunk of response text. It implements transport.Streamer.
//
// The gateway keeps the conversation server-side per session, so only the
// most recent message is transmitted; SystemPrompt has no slot in this
// protocol and is ignored.
func (c *Client) StreamCompletion(ctx context.Context, req transport.Request, fn transport.ChunkFunc) error {
	if len(req.Messages) == 0 {
		return ErrEmptyHistory
	}
	latest := req.Messages[len(req.Messages)-1]

	body, err := json.Marshal(chatRequest{
		Message: latest.Content,
		Model:   req.Model,
		Stream:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &GatewayError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	err = c.readStream(ctx, resp.Body, fn)
	log.Printf("gateway: stream %s model=%s (%v) err=%v", c.sessionID[:8], req.Model, time.Since(start), err)
	return err
}

// readStream copies raw body bytes to fn until EOF. Bytes are decoded
// incrementally, preserving arrival order; a multi-byte rune split across
// reads is held back until its remaining bytes arrive, so every emitted
// chunk is valid UTF-8 on its own.
func (c *Client) readStream(ctx context.Context, body io.Reader, fn transport.ChunkFunc) error {
	buf := make([]byte, readBufferSize)
	var carry []byte
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			carry = append(carry, buf[:n]...)
			if cut := completePrefixLen(carry); cut > 0 {
				fn(transport.Chunk{Content: string(carry[:cut])})
				carry = append(carry[:0], carry[cut:]...)
			}
		}
		if err != nil {
			if err == io.EOF {
				// A stream truncated mid-rune still delivers its last
				// bytes; concatenation stays lossless.
				if len(carry) > 0 {
					fn(transport.Chunk{Content: string(carry)})
				}
				fn(transport.Chunk{Done: true})
				return nil
			}
			return fmt.Errorf("stream read failed: %w", err)
		}
	}
}

// completePrefixLen returns the length of b's longest prefix that ends on
// a UTF-8 rune boundary. Only a trailing incomplete sequence is held back;
// bytes that are outright invalid pass through so a garbage stream cannot
// stall delivery.
func completePrefixLen(b []byte) int {
	for i := len(b) - 1; i >= 0 && i > len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return i
			}
			break
		}
	}
	return len(b)
}
