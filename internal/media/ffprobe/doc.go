// Package ffprobe wraps the two ffprobe queries vconv issues: a JSON stream
// inspection used by `vconv info`, and a plain-text duration lookup the
// external backend uses to turn encoder timestamps into percentages.
package ffprobe
