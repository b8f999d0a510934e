package logging

import (
	"errors"
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/njprem/umrah_marketplace_client/internal/config"
)

// Setup points the standard logger at stderr plus the rotating log file and
// Logstash when they are configured. The returned closer flushes and releases
// both sinks.
func Setup(cfg config.Config) io.Closer {
	out, closer := Writer(cfg, os.Stderr)
	log.SetOutput(out)
	log.SetFlags(log.LstdFlags | log.LUTC)
	return closer
}

// Writer builds the combined log sink on top of base. A failing file sink does
// not stop lines from reaching the sinks after it.
func Writer(cfg config.Config, base io.Writer) (io.Writer, io.Closer) {
	writers := []io.Writer{base}
	var closers multiCloser

	if cfg.LogFile != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		writers = append(writers, lenientWriter{file})
		closers = append(closers, file)
	}

	if cfg.LogstashTCPAddr != "" {
		ls, err := NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Printf("logging: logstash disabled: %v", err)
		} else {
			writers = append(writers, ls)
			closers = append(closers, ls)
		}
	}

	return io.MultiWriter(writers...), closers
}

// lenientWriter reports every write as complete so io.MultiWriter keeps going.
type lenientWriter struct {
	w io.Writer
}

func (l lenientWriter) Write(p []byte) (int, error) {
	_, _ = l.w.Write(p)
	return len(p), nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
