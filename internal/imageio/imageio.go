// Package imageio decodes uploaded and reference images, prepares detection
// buffers and encodes rendered results.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/kozaktomas/facetag/internal/constants"
	_ "golang.org/x/image/webp"
)

// Format is an output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpg"
	FormatWebP Format = "webp"
)

// ErrUnsupportedFormat is returned for unknown output formats.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ParseFormat maps a user supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// ErrImageTooLarge is returned when an image declares more than
// constants.MaxImagePixels pixels.
var ErrImageTooLarge = errors.New("image dimensions too large")

// Decode reads jpeg, png, gif or webp data and applies EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes an in-memory image. The header is checked against
// constants.MaxImagePixels before any pixel data is allocated.
func DecodeBytes(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("decoding image: empty data")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	if err := checkDimensions(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

func checkDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("decoding image: invalid dimensions %dx%d", width, height)
	}
	if int64(width)*int64(height) > constants.MaxImagePixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, width, height, constants.MaxImagePixels)
	}
	return nil
}

// EncodeOptions controls lossy output.
type EncodeOptions struct {
	Quality  int
	Lossless bool
}

// Encode writes img in the requested format.
func Encode(w io.Writer, img image.Image, format Format, opts EncodeOptions) error {
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = constants.DefaultJPEGQuality
	}
	switch format {
	case FormatWebP:
		return webp.Encode(w, img, &webp.Options{Lossless: opts.Lossless, Quality: float32(opts.Quality)})
	case FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(opts.Quality))
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		return enc.Encode(w, img)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// WriteFile encodes img to path. The file is closed before returning so a
// failed flush is reported.
func WriteFile(path string, img image.Image, format Format, opts EncodeOptions) error {
	f, err := os.Create(path) //nolint:gosec // caller-chosen output path
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := Encode(f, img, format, opts); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
