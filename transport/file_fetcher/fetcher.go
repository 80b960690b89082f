package file_fetcher

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	"github.com/golang/glog"
	"github.com/prebid/vast-resolver/transport"
)

// NewFileFetcher returns a Fetcher which reads file:// URLs from disk.
//
// Paths are resolved inside directory: file:///tags/preroll.xml reads
// "{directory}/tags/preroll.xml", and ".." segments never leave the directory.
func NewFileFetcher(directory string) (*FileFetcher, error) {
	root, err := filepath.Abs(directory)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	glog.Infof("Making file_fetcher for directory %s", root)
	return &FileFetcher{root: root}, nil
}

type FileFetcher struct {
	root string
}

func (fetcher *FileFetcher) Fetch(ctx context.Context, rawURL string, opts transport.Options) (*etree.Document, error) {
	path, err := fetcher.resolve(rawURL)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return transport.Parse(body)
}

func (fetcher *FileFetcher) resolve(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "file" {
		return "", fmt.Errorf("unsupported scheme %q in %s", parsed.Scheme, rawURL)
	}
	if parsed.Host != "" && parsed.Host != "localhost" {
		return "", fmt.Errorf("remote file host %q in %s", parsed.Host, rawURL)
	}
	return filepath.Join(fetcher.root, filepath.Clean("/"+parsed.Path)), nil
}
