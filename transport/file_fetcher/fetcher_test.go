package file_fetcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prebid/vast-resolver/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixtureDirectory(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tags"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tags", "inline.xml"), []byte(`<VAST version="3.0"/>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.xml"), []byte(`<VAST>`), 0o644))
	return dir
}

func TestFileFetcher(t *testing.T) {
	fetcher, err := NewFileFetcher(newFixtureDirectory(t))
	require.NoError(t, err)

	testCases := []struct {
		description string
		url         string
		expectErr   bool
	}{
		{description: "absolute path", url: "file:///tags/inline.xml"},
		{description: "localhost", url: "file://localhost/tags/inline.xml"},
		{description: "dot segments stay inside the root", url: "file:///../../tags/inline.xml"},
		{description: "missing file", url: "file:///tags/missing.xml", expectErr: true},
		{description: "malformed document", url: "file:///broken.xml", expectErr: true},
		{description: "remote host", url: "file://example.com/tags/inline.xml", expectErr: true},
		{description: "wrong scheme", url: "http://example.com/tags/inline.xml", expectErr: true},
	}

	for _, test := range testCases {
		doc, err := fetcher.Fetch(context.Background(), test.url, transport.Options{})
		if test.expectErr {
			assert.Error(t, err, test.description)
			continue
		}
		if assert.NoError(t, err, test.description) {
			assert.Equal(t, "VAST", doc.Root().Tag, test.description)
		}
	}
}

func TestNewFileFetcherRejectsFiles(t *testing.T) {
	dir := newFixtureDirectory(t)

	_, err := NewFileFetcher(filepath.Join(dir, "broken.xml"))
	assert.Error(t, err)

	_, err = NewFileFetcher(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
