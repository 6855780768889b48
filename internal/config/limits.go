package config

const (
	// MaxDirectoryNameLength is the maximum length for a single path segment.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and to match common
	// filesystem name limits, since every directory has a physical mirror.
	MaxDirectoryNameLength = 255

	// MaxFileNameLength is the maximum length for file names.
	// Same as directory names for consistency.
	MaxFileNameLength = 255

	// MaxPathLength is the maximum length for full canonical paths.
	// Set to 1000 to allow reasonably deep hierarchies while keeping paths
	// indexable.
	MaxPathLength = 1000

	// MaxPathDepth caps the number of segments in a canonical path. Cascade
	// propagation recurses over the live subtree, so depth bounds recursion.
	MaxPathDepth = 32

	// MaxUploadBytes is the request-body limit for multipart uploads.
	MaxUploadBytes = 100 << 20

	// MaxDescriptionLength is the maximum length for version descriptions.
	MaxDescriptionLength = 1000
)
