// Package main is the entry point for the vidcompress server.
//
// vidcompress accepts video uploads, compresses large ones with ffmpeg to
// H.264/AAC MP4 and stores the result with its metadata. Compression is
// best-effort: any failure stores the original file instead.
//
// # Application Lifecycle
//
//  1. Memory Configuration: Sets GOMEMLIMIT from MEMORY_LIMIT
//  2. Configuration Loading: Reads environment variables and prepares DATA_DIR
//  3. Database Initialization: Opens SQLite and runs migrations
//  4. Component Initialization:
//     - Object storage under DATA_DIR/objects
//     - Engine loader (lazy; ffmpeg is located on first use)
//     - Prober chain: MP4 box parser, then ffprobe
//     - Compressor, metrics collector and memory monitor
//  5. HTTP Server Setup: Routes, then RequestID, Logger and Metrics middleware
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM and releases every component
//
// # HTTP Servers
//
//  1. Main Server (default port 8080): the /api routes, /files object
//     downloads and the health endpoints
//  2. Metrics Server (default port 9090, optional): /metrics and /health
//
// See package startup for the environment variables.
package main
