// Package plan maps source video properties to concrete encoder settings.
//
// Compute is a pure function over (size, width, height, duration). Tiers are
// evaluated top-down and the first match wins:
//
//	size > 100 MiB or pixels > 1920x1080  2000k  1920x1080  crf 28  medium
//	size >  50 MiB or pixels > 1280x720   1500k  1280x720   crf 26  medium
//	size >  25 MiB                        1000k  1280x720   crf 24  fast
//	otherwise                              800k  source     crf 23  fast
//
// Info produces the advisory pre-flight estimate shown before a user opts in
// to compression. It never gates the pipeline.
package plan
