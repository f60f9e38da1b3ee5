package grok

import (
	"bytes"

	"github.com/tidwall/gjson"
)

const (
	eventMarker    = "data:"
	doneSentinel   = "[DONE]"
	deltaFieldPath = "choices.0.delta.content"
)

// Reframer turns the provider's line-delimited event stream into plain
// assistant text. Network chunk boundaries carry no meaning: bytes are
// buffered until a full line is available.
type Reframer struct {
	buf  []byte
	done bool
}

// NewReframer creates an empty reframer.
func NewReframer() *Reframer {
	return &Reframer{}
}

// Feed appends a raw chunk and returns the text of every content delta
// completed by it. done is true once the terminal sentinel has been seen;
// anything after the sentinel, including the rest of the same chunk, is
// discarded.
func (r *Reframer) Feed(chunk []byte) (deltas []string, done bool) {
	if r.done {
		return nil, true
	}

	r.buf = append(r.buf, chunk...)

	start := 0
	for {
		idx := bytes.IndexByte(r.buf[start:], '\n')
		if idx < 0 {
			break
		}

		line := r.buf[start : start+idx]
		start += idx + 1

		delta, terminal := parseLine(line)
		if terminal {
			r.done = true
			r.buf = nil
			return deltas, true
		}
		if delta != "" {
			deltas = append(deltas, delta)
		}
	}

	// Keep only the trailing partial line.
	r.buf = append(r.buf[:0], r.buf[start:]...)

	return deltas, false
}

// Done reports whether the terminal sentinel has been seen.
func (r *Reframer) Done() bool {
	return r.done
}

// Pending returns the number of buffered bytes that do not yet form a line.
func (r *Reframer) Pending() int {
	return len(r.buf)
}

// parseLine decodes one complete event line. Blank lines, lines without the
// event marker and malformed payloads yield no text.
func parseLine(line []byte) (string, bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || !bytes.HasPrefix(trimmed, []byte(eventMarker)) {
		return "", false
	}

	payload := bytes.TrimSpace(trimmed[len(eventMarker):])
	if string(payload) == doneSentinel {
		return "", true
	}

	if !gjson.ValidBytes(payload) {
		return "", false
	}

	content := gjson.GetBytes(payload, deltaFieldPath)
	if content.Type != gjson.String {
		return "", false
	}

	return content.String(), false
}
