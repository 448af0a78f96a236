// Package fileutil holds filesystem helpers shared by the CLI, currently the
// advisory per-output lock that stops two vconv processes from writing the
// same file.
package fileutil
