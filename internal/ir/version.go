package ir

const (
	// FormatVersion is the semantic version of the serialized form.
	// Stores written with a different major version cannot be read.
	FormatVersion = "1.0.0"

	// Version is the hpl tool version.
	Version = "0.1.0"
)
