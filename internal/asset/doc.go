// Package asset defines the immutable in-memory video blob that flows through
// the compression pipeline and the upload flow.
//
// An Asset is created once from an upload or a file on disk and never mutated.
// Compression produces a new Asset; on fallback the original Asset is returned
// as-is, so callers can compare identity or bytes to tell the cases apart.
package asset
