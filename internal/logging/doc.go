// Package logging provides a simple leveled logging interface for the
// vidcompress service and CLI.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information, including raw encoder output
//   - INFO: General operational messages
//   - WARN: Warning conditions, such as a compression fallback
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=true.
//
// LineWriter adapts the logger to an io.Writer so subprocess output can be
// streamed into the log one line at a time.
package logging
