// Package logs reads the JSON log file written by the vconv logger.
//
// Tail and ReadFrom work on complete lines and return byte offsets so
// `vconv logs --follow` can poll for new output without re-reading the file.
// Parse decodes a line into an Entry for filtering by conversion ID and
// compact one-line rendering.
package logs
