// Package logging builds the per-component loggers used across planner.
//
// Every component logs through a stdlib *log.Logger with a "[component] "
// prefix. Output goes to a size-rotated file when one is configured, to
// stderr when verbose, or both.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects log destinations.
type Options struct {
	// File is rotated by size. Empty disables file output.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Verbose also writes to Stderr.
	Verbose bool

	// Stderr defaults to os.Stderr.
	Stderr io.Writer
}

// Factory hands out loggers that share one destination.
type Factory struct {
	out    io.Writer
	rotate *lumberjack.Logger
}

// New opens the destinations in opts. With no file and no verbose output
// every logger discards.
func New(opts Options) *Factory {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var writers []io.Writer
	f := &Factory{}
	if opts.File != "" {
		f.rotate = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		writers = append(writers, f.rotate)
	}
	if opts.Verbose {
		writers = append(writers, stderr)
	}

	switch len(writers) {
	case 0:
		f.out = io.Discard
	case 1:
		f.out = writers[0]
	default:
		f.out = io.MultiWriter(writers...)
	}
	return f
}

// Logger returns a logger prefixed with "[component] ".
func (f *Factory) Logger(component string) *log.Logger {
	return log.New(f.out, "["+component+"] ", log.LstdFlags)
}

// Writer returns the shared destination.
func (f *Factory) Writer() io.Writer {
	return f.out
}

// Rotate closes the current log file and starts a new one.
func (f *Factory) Rotate() error {
	if f.rotate == nil {
		return nil
	}
	return f.rotate.Rotate()
}

// Close releases the log file, if any.
func (f *Factory) Close() error {
	if f.rotate == nil {
		return nil
	}
	return f.rotate.Close()
}
