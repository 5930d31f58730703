// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const permission = 0664

type LogBuild struct {
	writer io.Writer
	path   string
	level  zerolog.Level
}

type LogData struct {
	LogFile *os.File
	Logger  zerolog.Logger
}

// New starts a builder that writes human-readable output to stderr at info level.
func New() *LogBuild {
	return &LogBuild{writer: zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}, level: zerolog.InfoLevel}
}

// FromPath adds a JSON log file next to the console output.
func (build *LogBuild) FromPath(path string) *LogBuild {
	build.path = path
	return build
}

// FromWriter replaces the console writer.
func (build *LogBuild) FromWriter(w io.Writer) *LogBuild {
	build.writer = w
	return build
}

// Level sets the minimum level by name. Unknown names fall back to info.
func (build *LogBuild) Level(name string) *LogBuild {
	build.level = ParseLevel(name)
	return build
}

func (build *LogBuild) Make() (*LogData, error) {
	logData := new(LogData)
	writers := []io.Writer{build.writer}
	if build.path != "" {
		if err := os.MkdirAll(filepath.Dir(build.path), 0755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(build.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		logData.LogFile = f
		writers = append(writers, zerolog.SyncWriter(f))
	}

	var w io.Writer = writers[0]
	if len(writers) > 1 {
		w = zerolog.MultiLevelWriter(writers...)
	}
	logData.Logger = zerolog.New(w).Level(build.level).With().Timestamp().Logger()
	return logData, nil
}

// Close releases the log file, if any.
func (d *LogData) Close() error {
	if d.LogFile == nil {
		return nil
	}
	return d.LogFile.Close()
}

func ParseLevel(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
