package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func (f Format) Validate() error {
	switch f {
	case FormatText, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid log format: %s", f)
	}
}

// Setup configures the standard logrus logger. Output goes to stderr because
// stdout carries the stdio transport.
func Setup(level string, format Format) error {
	return SetupWithOutput(os.Stderr, level, format)
}

func SetupWithOutput(out io.Writer, level string, format Format) error {
	if level == "" {
		level = "info"
	}

	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("logger.Setup: %w", err)
	}

	if format == "" {
		format = FormatText
	}

	if err := format.Validate(); err != nil {
		return fmt.Errorf("logger.Setup: %w", err)
	}

	log.SetOutput(out)
	log.SetLevel(lvl)

	switch format {
	case FormatJSON:
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	return nil
}
