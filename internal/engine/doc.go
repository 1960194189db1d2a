// Package engine loads and drives the ffmpeg encoding engine.
//
// A Loader owns the process-wide engine handle. The first Acquire call checks
// the host, then walks an ordered list of candidate Sources (a configured
// binary, a $PATH lookup, HTTP mirrors verified by SHA-256) until one yields a
// binary that answers "-version" with an ffmpeg banner. The resulting FFmpeg
// handle is cached for the life of the process; a failed initialization is
// not cached and is retried on the next call. Concurrent callers share one
// in-flight initialization.
//
// An FFmpeg handle exposes a small virtual filesystem (a private scratch
// directory addressed by bare file names), a progress listener fed from
// ffmpeg's "-progress" output, and Exec. Every line ffmpeg writes to stderr is
// forwarded to the debug log.
//
// Errors:
//   - ErrUnsupportedEnvironment: the host cannot run the engine; returned
//     before any network activity.
//   - ErrEngineUnavailable: every source failed or initialization timed out.
//     The concrete *UnavailableError carries a user-facing Message and the
//     per-source attempts.
package engine
