// Command vidcompress compresses videos from the command line using the same
// pipeline as the server.
//
// Usage:
//
//	vidcompress <command> [arguments]
//
// Commands:
//
//	info <file|bytes>         Print whether a source of that size is worth
//	                          compressing, with estimated savings and time.
//
//	probe <file>              Read width, height and duration, and print the
//	                          encode plan the file would get.
//
//	compress <file> [output]  Compress to MP4. The output defaults to
//	                          <name>_compressed.mp4 next to the input.
//	                          Inputs below the threshold are left alone and
//	                          the command exits 0. Any other failure exits 1.
//
// Progress is drawn as a bar when stdout is a terminal and as one line per
// quarter otherwise.
//
// Environment:
//
//	FFMPEG_PATH        - ffmpeg binary to try before $PATH
//	FFPROBE_PATH       - ffprobe binary (default: ffprobe from $PATH)
//	FFMPEG_MIRRORS     - Comma-separated url#sha256 download fallbacks,
//	                     cached under the user cache directory
//	MIN_COMPRESS_BYTES - Skip inputs smaller than this (default: 50 MiB)
//	EXEC_TIMEOUT       - Bound on a single encode (default: 30m)
//	LOG_LEVEL          - Library log level (default: warn)
package main
