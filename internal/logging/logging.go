package logging

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger is the closed set of log sinks the service writes to. One
// implementation is selected from configuration at process start and passed
// down explicitly; there is no package-level default.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Close() error
}

// New selects a sink by name. Unknown names fall back to the console sink.
func New(sink, path string) (Logger, error) {
	if sink == "file" {
		return NewFileSink(path)
	}
	return NewConsoleSink(), nil
}

type sinkLogger struct {
	logger *log.Logger
	closer io.Closer
}

// NewConsoleSink logs to stdout.
func NewConsoleSink() Logger {
	return &sinkLogger{logger: log.New(os.Stdout, "", log.LstdFlags)}
}

// NewFileSink appends to the given file, creating it if needed.
func NewFileSink(path string) (Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &sinkLogger{logger: log.New(f, "", log.LstdFlags), closer: f}, nil
}

func (s *sinkLogger) Infof(format string, args ...any) {
	s.logger.Printf("INFO "+format, args...)
}

func (s *sinkLogger) Warnf(format string, args ...any) {
	s.logger.Printf("WARN "+format, args...)
}

func (s *sinkLogger) Errorf(format string, args ...any) {
	s.logger.Printf("ERROR "+format, args...)
}

func (s *sinkLogger) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
