package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pathdex/pathdex/internal/query"
)

func TestMatches_PipedOutputIsBarePaths(t *testing.T) {
	// Given: a plain writer (as when piped)
	var buf bytes.Buffer
	w := NewPlain(&buf)

	// When: a page with two matches is printed
	w.Matches(&query.Result{
		Matches: []query.Match{
			{Path: "/srv/docs/a.txt", Kind: "file", Size: 10},
			{Path: "/srv/docs/b.txt", Kind: "file", Size: 20},
		},
		Total: 2,
	})

	// Then: the output is one bare path per line, nothing else
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{"/srv/docs/a.txt", "/srv/docs/b.txt"}, lines)
}

func TestStatus_SuppressedWhenPiped(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Statusf("indexed %d entries", 42)

	assert.Empty(t, buf.String())
}

func TestErrorf_AlwaysPrinted(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Errorf("daemon not running")

	assert.Equal(t, "error: daemon not running\n", buf.String())
}

func TestIsTTY_FalseForBuffer(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
	assert.False(t, IsTTY(nil))
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0B"},
		{512, "512B"},
		{2048, "2.0KiB"},
		{3 * 1024 * 1024, "3.0MiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanSize(tt.in))
	}
}
