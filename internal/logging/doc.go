// Package logging provides structured file logging for notedex.
//
// Logs are written as JSON lines to ~/.notedex/logs/notedex.log with
// size-based rotation. Stderr mirroring is enabled by default so
// interactive runs still show diagnostics.
package logging
