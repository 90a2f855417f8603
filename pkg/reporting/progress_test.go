package reporting

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPullProgressOverwritesSameID(t *testing.T) {
	stream := strings.NewReader(`{"status":"Downloading","progress":"[=> ]","id":"x"}
{"status":"Pull complete","id":"x"}
{"status":"Done"}
`)
	var buf bytes.Buffer
	require.NoError(t, NewPullProgress(&buf, FormatText).Render("img:1", stream))

	first := "x: Downloading [=> ]"
	n := len(first)
	want := first +
		strings.Repeat("\b", n) + strings.Repeat(" ", n) + strings.Repeat("\b", n) + "x: Pull complete" +
		"\nDone\n"
	assert.Equal(t, want, buf.String())
}

func TestPullProgressNewLineForNewID(t *testing.T) {
	stream := strings.NewReader(`{"status":"Waiting","id":"a"}
{"status":"Waiting","id":"b"}
`)
	var buf bytes.Buffer
	require.NoError(t, NewPullProgress(&buf, FormatText).Render("img:1", stream))
	assert.Equal(t, "a: Waiting\nb: Waiting\n", buf.String())
}

func TestPullProgressProgressOnlyWhileTransferring(t *testing.T) {
	stream := strings.NewReader(`{"status":"Verifying Checksum","progress":"[====]","id":"a"}
{"status":"Extracting","progress":"[==  ]","id":"b"}
`)
	var buf bytes.Buffer
	require.NoError(t, NewPullProgress(&buf, FormatPlain).Render("img:1", stream))
	assert.Equal(t, "a: Verifying Checksum\nb: Extracting [==  ]\n", buf.String())
}

func TestPullProgressStreamError(t *testing.T) {
	stream := strings.NewReader(`{"status":"Pulling from ciwater/postgis","id":"2.1.2"}
{"errorDetail":{"message":"manifest unknown"},"error":"manifest unknown"}
{"status":"never rendered"}
`)
	var buf bytes.Buffer
	err := NewPullProgress(&buf, FormatText).Render("ciwater/postgis:2.1.2", stream)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest unknown")
	assert.NotContains(t, buf.String(), "never rendered")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestPullProgressMalformedStream(t *testing.T) {
	var buf bytes.Buffer
	err := NewPullProgress(&buf, FormatText).Render("img:1", strings.NewReader(`{"status":`))
	assert.Error(t, err)
}

func TestPullProgressEmptyStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPullProgress(&buf, FormatText).Render("img:1", strings.NewReader("")))
	assert.Empty(t, buf.String())
}

func TestPullProgressJSON(t *testing.T) {
	stream := strings.NewReader(`{"status":"Downloading","progress":"[=> ]","id":"x"}
{"status":"Digest: sha256:abc"}
`)
	var buf bytes.Buffer
	require.NoError(t, NewPullProgress(&buf, FormatJSON).Render("img:1", stream))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first pullEvent
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, pullEvent{Image: "img:1", ID: "x", Status: "Downloading", Progress: "[=> ]"}, first)

	var second pullEvent
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Empty(t, second.ID)
	assert.Equal(t, "Digest: sha256:abc", second.Status)
}
