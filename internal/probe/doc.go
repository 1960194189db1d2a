// Package probe extracts intrinsic video properties (pixel dimensions and
// duration) from an in-memory asset without decoding it.
//
// Two probers are provided:
//   - MP4 reads only the ISO-BMFF boxes that carry the answer (moov/mvhd for
//     duration, moov/trak/tkhd for dimensions) using github.com/abema/go-mp4.
//   - FFprobe stages the asset to a temporary file and asks ffprobe. The
//     staged file is released exactly once, whether probing succeeds or not.
//
// Chain tries probers in order and WithTimeout bounds any prober, since a
// malformed file must never hang the upload flow. Every failure wraps
// ErrMetadataRead.
package probe
