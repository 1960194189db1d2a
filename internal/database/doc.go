// Package database provides SQLite storage for the video library.
//
// It records every uploaded video with its public URLs, descriptive fields,
// counters and the sizes before and after compression. Schema changes are
// applied by numbered migrations tracked in the metadata table.
//
// The database uses WAL mode for concurrent reads and initializes its schema
// automatically.
package database
