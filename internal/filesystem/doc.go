/*
Package filesystem wraps the filesystem calls used on the data volume with
retries for NFS stale file handle errors.

Uploaded objects and the database usually live on a mounted volume. On NFS a
file can briefly report ESTALE (errno 116) after server-side changes; these
calls retry just that error with exponential backoff and fail immediately on
anything else.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())

The defaults are 3 retries starting at 50ms and capped at 500ms.

# Metrics

Retries, recoveries, final failures, stale errors and operation duration are
recorded per operation and volume. Volume names come from a VolumeResolver,
normally installed at startup:

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
	    "storage":  cfg.StorageDir,
	    "scratch":  cfg.ScratchDir,
	    "database": cfg.DataDir,
	}))
*/
package filesystem
