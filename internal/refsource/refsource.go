// Package refsource fetches reference images of known identities, addressed
// by identity name and 1-based index.
package refsource

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/facetag/internal/imageio"
)

// ErrNotFound is returned when a reference image does not exist.
var ErrNotFound = errors.New("reference image not found")

// Source returns the index-th reference image of an identity.
type Source interface {
	Fetch(ctx context.Context, name string, index int) (image.Image, error)
}

// HTTPSource downloads reference images from a URL template containing
// {name} and {index} placeholders.
type HTTPSource struct {
	template string
	client   *http.Client
}

// NewHTTPSource validates the template and creates the source.
func NewHTTPSource(template string, timeout time.Duration) (*HTTPSource, error) {
	if !strings.Contains(template, "{name}") || !strings.Contains(template, "{index}") {
		return nil, fmt.Errorf("reference URL template %q must contain {name} and {index}", template)
	}
	parsed, err := url.Parse(strings.NewReplacer("{name}", "x", "{index}", "1").Replace(template))
	if err != nil {
		return nil, fmt.Errorf("invalid reference URL template: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsed.Scheme)
	}
	return &HTTPSource{
		template: template,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// URL returns the location of the index-th image of name.
func (s *HTTPSource) URL(name string, index int) string {
	return strings.NewReplacer(
		"{name}", url.PathEscape(name),
		"{index}", strconv.Itoa(index),
	).Replace(s.template)
}

func (s *HTTPSource) Fetch(ctx context.Context, name string, index int) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(name, index), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "facetag/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s/%d", ErrNotFound, name, index)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return imageio.DecodeBytes(data)
}

// DirSource reads reference images from <root>/<name>/<index>.<ext>.
type DirSource struct {
	root string
}

var dirExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// NewDirSource checks that root is a directory.
func NewDirSource(root string) (*DirSource, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reference directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("reference directory %s is not a directory", root)
	}
	return &DirSource{root: root}, nil
}

func (s *DirSource) Fetch(ctx context.Context, name string, index int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Identity names must not escape the root.
	if name != filepath.Base(name) || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid identity name %q", name)
	}

	for _, ext := range dirExtensions {
		path := filepath.Join(s.root, name, strconv.Itoa(index)+ext)
		f, err := os.Open(path) //nolint:gosec // name validated above
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		img, err := imageio.Decode(f)
		f.Close()
		return img, err
	}
	return nil, fmt.Errorf("%w: %s/%d", ErrNotFound, name, index)
}
