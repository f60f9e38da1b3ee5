package streamclient

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/davidbz/cthai/internal/domain"
)

const readBufferSize = 4096

// Stream yields decoded text fragments from a relay response.
type Stream struct {
	ctx     context.Context
	body    io.ReadCloser
	reader  io.Reader
	buf     []byte
	pending error
}

func newStream(ctx context.Context, body io.ReadCloser) *Stream {
	return &Stream{
		ctx:  ctx,
		body: body,
		// The decoder holds back a rune split across reads until the rest
		// arrives. Invalid bytes come out as U+FFFD.
		reader: transform.NewReader(body, unicode.UTF8.NewDecoder()),
		buf:    make([]byte, readBufferSize),
	}
}

// Next returns the next fragment in arrival order. It returns io.EOF once the
// relay closes the stream, an error wrapping domain.ErrCancelled when the
// stream's context ended, and one wrapping domain.ErrStreamRead otherwise.
func (s *Stream) Next() (string, error) {
	if s.pending != nil {
		return "", s.pending
	}

	for {
		n, err := s.reader.Read(s.buf)
		if err != nil {
			s.pending = s.classify(err)
		}
		if n > 0 {
			return string(s.buf[:n]), nil
		}
		if s.pending != nil {
			return "", s.pending
		}
	}
}

// Close releases the response body.
func (s *Stream) Close() error {
	return s.body.Close()
}

func (s *Stream) classify(err error) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	if s.ctx.Err() != nil {
		return fmt.Errorf("%w: %w", domain.ErrCancelled, s.ctx.Err())
	}
	return fmt.Errorf("%w: %w", domain.ErrStreamRead, err)
}
