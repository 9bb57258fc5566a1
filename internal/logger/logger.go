// Package logger writes qview's log to a file. The terminal belongs to the
// UI, so nothing is ever written to stdout or stderr.
package logger

import (
	"os"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kobzarvs/qview"
	"github.com/kobzarvs/qview/internal/config"
)

var (
	current atomic.Pointer[zap.SugaredLogger]
	logFile *os.File
)

// Init opens the log file for one run, truncating the previous one, and
// installs it for the package helpers.
func Init(opts config.LogOptions) error {
	path, err := Path(opts.File)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder

	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(f), level)

	// helpers below add one frame
	l := zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	).Named(qview.Name)

	Close()
	logFile = f
	current.Store(l.Sugar())
	l.Info("log opened",
		zap.String("path", path),
		zap.String("version", qview.Version()),
		zap.Int("pid", os.Getpid()),
		zap.Bool("debug", opts.Debug),
	)
	return nil
}

// Close flushes and closes the log. Helpers become no-ops afterwards.
func Close() {
	if s := current.Swap(nil); s != nil {
		_ = s.Sync()
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// Path returns the log file location: file when set, else $QVIEW_LOG_FILE,
// else qview.log in the config directory.
func Path(file string) (string, error) {
	if file != "" {
		return file, nil
	}
	if v := os.Getenv("QVIEW_LOG_FILE"); v != "" {
		return v, nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "qview.log"), nil
}

func Debug(msg string, keysAndValues ...any) {
	if s := current.Load(); s != nil {
		s.Debugw(msg, keysAndValues...)
	}
}

func Info(msg string, keysAndValues ...any) {
	if s := current.Load(); s != nil {
		s.Infow(msg, keysAndValues...)
	}
}

func Warn(msg string, keysAndValues ...any) {
	if s := current.Load(); s != nil {
		s.Warnw(msg, keysAndValues...)
	}
}

func Error(msg string, keysAndValues ...any) {
	if s := current.Load(); s != nil {
		s.Errorw(msg, keysAndValues...)
	}
}
