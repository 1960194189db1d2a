// Package mediatypes provides shared extension and MIME type tables for the
// files that pass through the upload pipeline.
//
// This package exists as a dependency-free foundation that can be imported by other
// packages without creating import cycles. It contains primitive types, constants,
// and pure utility functions with no external dependencies beyond the standard library.
//
// # File Types
//
//	mediatypes.FileTypeVideo // Accepted upload video formats (mp4, mov, mkv, webm, ...)
//	mediatypes.FileTypeImage // Accepted thumbnail formats (jpg, png, webp, ...)
//	mediatypes.FileTypeOther // Anything else
//
// # Extension Detection
//
//	fileType := mediatypes.TypeOf("clip.MOV") // FileTypeVideo
//	mime := mediatypes.MimeTypeOf("clip.MOV") // "video/quicktime"
package mediatypes
