package client

import (
	"bufio"
	"io"
	"strings"

	"github.com/OEvortex/geminicli-sdk/internal/logging"
)

// ChunkStream decodes a server-sent-event response body into LLMChunks.
// It is finite and not restartable; to retry a round, issue a fresh call.
//
// Usage follows the scanner pattern:
//
//	stream, err := backend.CompleteStreaming(ctx, req)
//	defer stream.Close()
//	for stream.Next() {
//	    chunk := stream.Current()
//	    ...
//	}
//	if err := stream.Err(); err != nil { ... }
//
// Abandoning the loop early and calling Close releases the underlying
// connection.
type ChunkStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner

	cur     LLMChunk
	err     error
	done    bool
	dropped int

	dataParts []string
}

// newChunkStream wraps a streaming response body. Large tool payloads can
// produce long SSE lines, so the scanner buffer is raised well past its
// default.
func newChunkStream(body io.ReadCloser) *ChunkStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	return &ChunkStream{
		body:    body,
		scanner: scanner,
	}
}

// Next advances to the next chunk. It returns false at end of stream or on
// error; check Err afterwards.
func (s *ChunkStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	for s.scanner.Scan() {
		line := strings.TrimSuffix(s.scanner.Text(), "\r")

		if line == "" {
			// Blank line ends the current event.
			if ok := s.flushEvent(); ok {
				return true
			}
			if s.done || s.err != nil {
				return false
			}
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue // comment
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		if strings.TrimSpace(key) != "data" {
			continue
		}

		value = strings.TrimPrefix(value, " ")
		if strings.TrimSpace(value) == "[DONE]" {
			s.done = true
			return false
		}
		s.dataParts = append(s.dataParts, value)
	}

	if err := s.scanner.Err(); err != nil {
		s.err = err
		return false
	}

	// Server closed without a trailing blank line: flush what's buffered.
	s.done = true
	return s.flushEvent()
}

// flushEvent decodes the buffered data lines of one event. Returns true
// when a chunk was produced. Undecodable bodies are dropped and counted,
// not fatal; a provider error payload fails the stream.
func (s *ChunkStream) flushEvent() bool {
	if len(s.dataParts) == 0 {
		return false
	}

	data := strings.TrimSpace(strings.Join(s.dataParts, "\n"))
	s.dataParts = s.dataParts[:0]

	if data == "" || data == "[DONE]" {
		if data == "[DONE]" {
			s.done = true
		}
		return false
	}

	chunk, err := parseCompletionData([]byte(data))
	if err != nil {
		if streamErr, ok := err.(*StreamError); ok {
			s.err = streamErr
			return false
		}
		s.dropped++
		logging.Debug("dropping undecodable SSE data frame", "error", err, "bytes", len(data))
		return false
	}

	s.cur = chunk
	return true
}

// Current returns the chunk produced by the last successful Next.
func (s *ChunkStream) Current() LLMChunk {
	return s.cur
}

// Err returns the error that terminated the stream, if any.
func (s *ChunkStream) Err() error {
	return s.err
}

// Dropped reports how many data frames failed JSON decoding and were
// skipped. A nonzero count with no other symptoms usually means keep-alive
// noise; a climbing count may mean the wire format changed.
func (s *ChunkStream) Dropped() int {
	return s.dropped
}

// Close releases the underlying response body. Safe to call more than
// once and after the stream is exhausted.
func (s *ChunkStream) Close() error {
	return s.body.Close()
}
