package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

func getLogFilePath() (string, error) {
	dir, err := gap.NewScope(gap.User, "serenade").CacheDir()
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	return filepath.Join(dir, "serenade.log"), nil
}

// setupLog sends logs to a file in the user's cache directory. The terminal
// belongs to the page, so nothing is ever logged to stdout or stderr.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	logFile, err := getLogFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil { //nolint:gosec
		// log disabled
		return func() error { return nil }, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		// log disabled
		return func() error { return nil }, nil
	}
	log.SetOutput(f)
	log.SetReportTimestamp(true)

	level := log.InfoLevel
	if l, err := log.ParseLevel(os.Getenv("SERENADE_LOG_LEVEL")); err == nil {
		level = l
	}
	if os.Getenv("SERENADE_DEBUG") != "" {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	return f.Close, nil
}
