package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/cthai/internal/streamclient"
)

func TestRender_AppendsStreamedText(t *testing.T) {
	var out bytes.Buffer

	shown := render(&out, streamclient.Transcript{Text: "Hel"}, "")
	shown = render(&out, streamclient.Transcript{Text: "Hello!"}, shown)
	shown = render(&out, streamclient.Transcript{Text: "Hello!", Complete: true}, shown)

	require.Empty(t, shown)
	require.Equal(t, "Hello!\n", out.String())
}

func TestRender_ReplacedReplyOnNewLine(t *testing.T) {
	var out bytes.Buffer

	shown := render(&out, streamclient.Transcript{Text: "Hel"}, "")
	render(&out, streamclient.Transcript{Text: streamclient.CancelledMessage, Complete: true}, shown)

	require.Equal(t, "Hel\nMessage cancelled.\n", out.String())
}
