// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Face matching constants
const (
	// DefaultMatchThreshold is the maximum Euclidean distance at which a face
	// is still attributed to a known identity. Lower values = stricter matching
	DefaultMatchThreshold = 0.6

	// UnknownLabel is the label reported for faces that match no identity
	UnknownLabel = "unknown"
)

// Enrollment constants
const (
	// DefaultReferenceCount is the number of reference images fetched per identity
	DefaultReferenceCount = 2

	// DefaultReferenceTimeoutSeconds bounds a single reference image download
	DefaultReferenceTimeoutSeconds = 30
)

// Detection buffer constants
const (
	// MaxImageSize is the maximum dimension (width or height) of the buffer
	// handed to the face detector under the "fit" policy
	MaxImageSize = 1920

	// FixedCanvasWidth and FixedCanvasHeight are the canvas dimensions used
	// by the "fixed" policy
	FixedCanvasWidth  = 1000
	FixedCanvasHeight = 700
)

// Rendering constants
const (
	// BoxLineWidth is the stroke width of a face box in pixels
	BoxLineWidth = 2

	// DefaultJPEGQuality is used when encoding annotated images as JPEG or WebP
	DefaultJPEGQuality = 90
)
