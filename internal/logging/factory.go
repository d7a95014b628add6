package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the backend, level and destination of a Logger.
type Options struct {
	// Backend is "slog" (default) or "zap".
	Backend string
	// Level is one of debug, info, warn, error.
	Level string
	// File, when set, sends output to a daily-rotated file instead of stdout.
	File string
	// MaxAge bounds how long rotated files are kept.
	MaxAge time.Duration
}

// New builds a JSON Logger for opts. The returned closer releases the
// destination and must be called on shutdown.
func New(opts Options) (Logger, io.Closer, error) {
	var (
		w      io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)

	if opts.File != "" {
		rl, err := NewRotatingWriter(opts.File, opts.MaxAge)
		if err != nil {
			return nil, nil, err
		}
		w, closer = rl, rl
	}

	switch opts.Backend {
	case "", "slog":
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel(opts.Level)})
		return NewSlogLogger(slog.New(h)), closer, nil
	case "zap":
		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(w), zapLevel(opts.Level))
		return NewZapLogger(zap.New(core, zap.AddCaller())), closer, nil
	default:
		_ = closer.Close()
		return nil, nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}
}

// NewRotatingWriter opens path as a daily-rotated log; rotated files carry a
// date suffix and path itself is kept as a symlink to the current file.
func NewRotatingWriter(path string, maxAge time.Duration) (*rotatelogs.RotateLogs, error) {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return rotatelogs.New(
		path+".%Y%m%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
