// Package testsupport builds throwaway vconv configurations and source files
// for tests: temp state and log directories, zero pacing, and optional
// ffmpeg/ffprobe stubs.
package testsupport
