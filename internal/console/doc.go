// Package console detects whether steuer was started from a terminal and
// installs a Ctrl+C handler that keeps working after SDL3 replaced the
// process console handler.
package console
