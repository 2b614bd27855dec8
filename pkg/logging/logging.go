// Package logging provides leveled log output for quadview, optionally
// written to a rotating log file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"

	"github.com/natefinch/lumberjack"
)

// Config selects where log messages go
type Config struct {
	// Logfile is the path of the rotating log file; empty means stderr
	Logfile string `yaml:"logfile"`

	// MaxSize is the size in megabytes at which the log file is rotated
	MaxSize int `yaml:"max_log_size"`

	// MaxAge is the number of days rotated files are kept
	MaxAge int `yaml:"max_log_age"`
}

var (
	verbose atomic.Bool

	// logfile is the rotating writer installed by SetLogger, if any
	logfile atomic.Pointer[lumberjack.Logger]

	exit = os.Exit
)

// SetLogger directs log output according to c and returns the writer in use
// so callers can close it on exit. A nil or empty config keeps stderr.
func (c *Config) SetLogger() io.Writer {
	if c == nil || c.Logfile == "" {
		log.SetOutput(os.Stderr)
		Close()
		return os.Stderr
	}
	l := &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize, // megabytes
		MaxAge:   c.MaxAge,  // days
	}
	log.SetOutput(l)
	if prev := logfile.Swap(l); prev != nil {
		prev.Close()
	}
	return l
}

// Close closes the log file installed by SetLogger. It is a no-op when
// logging to stderr.
func Close() error {
	if l := logfile.Swap(nil); l != nil {
		return l.Close()
	}
	return nil
}

// SetVerbose turns debug messages on or off
func SetVerbose(v bool) {
	verbose.Store(v)
}

// Verbose reports whether debug messages are emitted
func Verbose() bool {
	return verbose.Load()
}

// Debugf logs only when verbose output is enabled
func Debugf(format string, args ...interface{}) {
	if verbose.Load() {
		log.Print(" DEBUG " + fmt.Sprintf(format, args...))
	}
}

func Infof(format string, args ...interface{}) {
	log.Print(" INFO " + fmt.Sprintf(format, args...))
}

func Warningf(format string, args ...interface{}) {
	log.Print(" WARNING " + fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...interface{}) {
	log.Print(" ERROR " + fmt.Sprintf(format, args...))
}

// Fatalf logs an error, closes the log file and exits with status 1
func Fatalf(format string, args ...interface{}) {
	Errorf(format, args...)
	Close()
	exit(1)
}
