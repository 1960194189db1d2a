// Package compress re-encodes large uploads into a smaller H.264/AAC MP4.
//
// Compression is best-effort: Compressor.Compress always returns a usable
// asset, falling back to the original on any failure. Run exposes the same
// pipeline with the outcome and the typed error that caused a fallback, and
// Reason maps that error to a stable label for logs and metrics.
//
// The pipeline is host check, size threshold, engine acquisition, metadata
// probe, plan, encode, read back, cleanup. Jobs on one Compressor are
// serialized because the engine's scratch files use fixed names.
package compress
