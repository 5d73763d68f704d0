// Package constants provides shared constants used across the codebase.
package constants

// HTTP server constants
const (
	// DefaultWebPort is the port the web server listens on when WEB_PORT is unset
	DefaultWebPort = 8080

	// DefaultWebHost is the bind address when WEB_HOST is unset
	DefaultWebHost = "0.0.0.0"

	// MaxUploadSize is the maximum file upload size in bytes (32MB)
	MaxUploadSize = 32 << 20

	// MaxImagePixels caps the decoded size of an uploaded or reference image
	// (width * height). Compressed data far below MaxUploadSize can still
	// declare huge dimensions.
	MaxImagePixels = 40_000_000

	// UploadFieldName is the multipart field carrying the user's photo
	UploadFieldName = "image"
)
