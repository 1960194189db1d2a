// Package upload implements the video upload flow: optional compression,
// storing the video and thumbnail in the object store, and recording the
// video in the library.
//
// Compression never blocks an upload. If it is skipped or fails the original
// file is stored instead.
package upload
