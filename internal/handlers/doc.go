// Package handlers provides HTTP request handlers for the vidcompress API.
//
// It includes handlers for:
//   - Compression estimates, metadata probing and engine preloading
//   - Video uploads, listing, search, views and deletion
//   - Serving stored videos and thumbnails
//   - Health checks, version and application stats
package handlers
