// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level  string // logrus level name, default "info"
	Format string // "json" or "text"
	File   string // optional rotated file, written alongside stdout
}

// New builds a logger from o. The returned closer flushes the rotated file, if any.
func New(o Options) (*logrus.Logger, io.Closer, error) {
	return build(o, os.Stdout)
}

func build(o Options, stdout io.Writer) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()

	lvl := o.Level
	if lvl == "" {
		lvl = "info"
	}
	level, err := logrus.ParseLevel(lvl)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "log level %q", o.Level)
	}
	log.SetLevel(level)

	switch strings.ToLower(o.Format) {
	case "", "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, nil, errors.Errorf("log format %q: want json or text", o.Format)
	}

	var closer io.Closer = nopCloser{}
	out := stdout
	if o.File != "" {
		lj := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = io.MultiWriter(stdout, lj)
		closer = lj
	}
	log.SetOutput(out)
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
