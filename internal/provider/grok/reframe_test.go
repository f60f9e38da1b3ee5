package grok_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/cthai/internal/provider/grok"
)

const helloStream = "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n" +
	"\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"lo!\"}}]}\n" +
	"data: [DONE]\n"

func feedAll(r *grok.Reframer, parts ...string) (string, bool) {
	var sb strings.Builder
	done := false
	for _, part := range parts {
		deltas, d := r.Feed([]byte(part))
		for _, delta := range deltas {
			sb.WriteString(delta)
		}
		done = done || d
	}
	return sb.String(), done
}

func TestReframer_SingleChunk(t *testing.T) {
	text, done := feedAll(grok.NewReframer(), helloStream)

	require.Equal(t, "Hello!", text)
	require.True(t, done)
}

func TestReframer_ChunkBoundaryInvariance(t *testing.T) {
	stream := "data: {\"choices\":[{\"delta\":{\"content\":\"héllo \"}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"wörld 🌍\"}}]}\n" +
		"data: [DONE]\n"

	for i := 0; i <= len(stream); i++ {
		text, done := feedAll(grok.NewReframer(), stream[:i], stream[i:])
		require.Equal(t, "héllo wörld 🌍", text, "split at byte %d", i)
		require.True(t, done, "split at byte %d", i)
	}
}

func TestReframer_ByteAtATime(t *testing.T) {
	r := grok.NewReframer()
	parts := make([]string, 0, len(helloStream))
	for i := 0; i < len(helloStream); i++ {
		parts = append(parts, helloStream[i:i+1])
	}

	text, done := feedAll(r, parts...)

	require.Equal(t, "Hello!", text)
	require.True(t, done)
	require.Zero(t, r.Pending())
}

func TestReframer_DiscardsAfterSentinel(t *testing.T) {
	r := grok.NewReframer()
	text, done := feedAll(r,
		"data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\ndata: [DONE]\n"+
			"data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n",
		"data: {\"choices\":[{\"delta\":{\"content\":\"c\"}}]}\n",
	)

	require.Equal(t, "a", text)
	require.True(t, done)
	require.True(t, r.Done())
}

func TestReframer_SkipsIgnoredLines(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{
			name:   "malformed json is skipped",
			stream: "data: {not json\ndata: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n",
			want:   "ok",
		},
		{
			name:   "lines without marker are skipped",
			stream: ": keep-alive\nevent: ping\ndata: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n",
			want:   "x",
		},
		{
			name:   "empty delta is skipped",
			stream: "data: {\"choices\":[{\"delta\":{\"content\":\"\"}}]}\ndata: {\"choices\":[{\"delta\":{}}]}\n",
			want:   "",
		},
		{
			name:   "crlf line endings",
			stream: "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\r\n\r\ndata: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\r\n",
			want:   "ab",
		},
		{
			name:   "marker without space",
			stream: "data:{\"choices\":[{\"delta\":{\"content\":\"tight\"}}]}\n",
			want:   "tight",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, done := feedAll(grok.NewReframer(), tt.stream)
			require.Equal(t, tt.want, text)
			require.False(t, done)
		})
	}
}

func TestReframer_RetainsPartialLine(t *testing.T) {
	r := grok.NewReframer()

	deltas, done := r.Feed([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"pa"))
	require.Empty(t, deltas)
	require.False(t, done)
	require.Positive(t, r.Pending())

	deltas, done = r.Feed([]byte("rtial\"}}]}\n"))
	require.Equal(t, []string{"partial"}, deltas)
	require.False(t, done)
	require.Zero(t, r.Pending())
}
