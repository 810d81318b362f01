// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/jeranaias/castchat/internal/transport"
)

// =============================================================================
// STREAMING CHAT
// =============================================================================

// StreamCompletion sends a streaming chat request and calls fn for each
// content chunk in arrival order. It implements transport.Streamer.
//
// A nil return means the server signalled completion (done:true) or the
// body ended cleanly; any other outcome returns an error after fn has seen
// every chunk delivered so far.
func (c *Client) StreamCompletion(ctx context.Context, req transport.Request, fn transport.ChunkFunc) error {
	reqBody := ChatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		System:   req.SystemPrompt,
		Stream:   true,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	// Streaming uses a client without timeout; lifetime is bounded by ctx.
	streamClient := &http.Client{}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL()+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := streamClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return ErrTimeout
		}
		return ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var srvErr serverError
		if err := json.NewDecoder(resp.Body).Decode(&srvErr); err == nil && srvErr.Error != "" {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: srvErr.Error}
		}
		return &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: "stream request failed: " + resp.Status,
		}
	}

	reader := NewStreamReader(resp.Body)
	return reader.Process(ctx, fn)
}

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader handles line-by-line JSON parsing of streaming responses.
// bufio buffers partial lines, so a frame split across network reads is
// reassembled before parsing.
type StreamReader struct {
	reader *bufio.Reader
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
	}
}

// Process reads the stream and calls fn for each chunk. Blocks until the
// stream completes, fails, or the context is cancelled.
func (s *StreamReader) Process(ctx context.Context, fn transport.ChunkFunc) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			chunk, err := s.readLine()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}

			if chunk != nil {
				fn(*chunk)
				if chunk.Done {
					return nil
				}
			}
		}
	}
}

// readLine reads and parses a single frame. A nil chunk with nil error
// means the line was empty or malformed and was skipped.
func (s *StreamReader) readLine() (*transport.Chunk, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(line) == 0 {
			return nil, io.EOF
		}
		// Try to process the trailing line even on EOF.
		if len(line) == 0 {
			return nil, err
		}
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	var frame chatStreamLine
	if err := json.Unmarshal(line, &frame); err != nil {
		// Malformed frames are skipped, not fatal.
		log.Printf("ollama: skipping malformed stream line (%d bytes): %v", len(line), err)
		return nil, nil
	}

	return &transport.Chunk{
		Content: frame.Message.Content,
		Done:    frame.Done,
	}, nil
}
