// Package logger configures the process-wide logr logger backed by zap and
// carries it through contexts.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/oakwood-commons/rtable/pkg/settings"
)

type loggerContextKey struct{}

const (
	RootCommandKey = "root_command"
	SubCommandKey  = "sub_command"
	CommitKey      = "commit"
	VersionKey     = "version"
	BuildTimeKey   = "build_time"
	GoVersionKey   = "go_version"
	TimeStampKey   = "timestamp"
	MessageKey     = "message"
	SourceKey      = "source"
	TableKey       = "table"
)

// process holds the logger built by Get.
var process struct {
	once sync.Once
	zap  *zap.Logger
	logr *logr.Logger
}

var discard = logr.Discard()

// ParseLevel converts a level name (debug, info, warn, error) or a zap
// numeric level such as "-2" into the value Get expects.
func ParseLevel(s string) (int8, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return int8(zapcore.InfoLevel), nil
	}
	if n, err := strconv.ParseInt(s, 10, 8); err == nil {
		if n > int64(zapcore.FatalLevel) {
			return 0, fmt.Errorf("invalid log level %q", s)
		}
		return int8(n), nil
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(s))
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return int8(lvl), nil
}

// New builds a JSON logger writing to w at the given zap level. logr V(n)
// calls map to zap level -n.
func New(logLevel int8, w io.Writer) (logr.Logger, *zap.Logger) {
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        TimeStampKey,
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     MessageKey,
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	})
	level := zap.NewAtomicLevelAt(zapcore.Level(logLevel))
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), level).
		With(buildFields())

	zl := zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
		zap.WithFatalHook(zapcore.WriteThenPanic),
	)
	return zapr.NewLogger(zl), zl
}

func buildFields() []zapcore.Field {
	v := settings.VersionInformation
	fields := []zapcore.Field{
		zap.String(CommitKey, v.Commit),
		zap.String(VersionKey, v.BuildVersion),
		zap.String(BuildTimeKey, v.BuildTime),
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		fields = append(fields, zap.String(GoVersionKey, info.GoVersion))
	}
	return fields
}

// Get builds the process logger on stderr the first time it is called.
// Later calls return that logger whatever logLevel they pass.
func Get(logLevel int8) *logr.Logger {
	process.once.Do(func() {
		l, zl := New(logLevel, os.Stderr)
		process.zap, process.logr = zl, &l
	})
	return GetGlobalLogger()
}

// WithLogger returns ctx carrying log. A context already carrying the same
// logger is returned as is.
func WithLogger(ctx context.Context, log *logr.Logger) context.Context {
	if lp, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok && lp == log {
		return ctx
	}
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// FromContext returns the context logger, falling back to GetGlobalLogger.
func FromContext(ctx context.Context) *logr.Logger {
	if log, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok {
		return log
	}
	return GetGlobalLogger()
}

// Sync flushes buffered entries. Call it before exit.
func Sync() {
	if process.zap == nil {
		return
	}
	if err := process.zap.Sync(); err != nil && !isIgnorableSyncError(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to flush logs: %v\n", err)
	}
}

// Sync on a terminal or closed descriptor fails harmlessly. Windows reports
// an invalid console handle only through the message text.
func isIgnorableSyncError(err error) bool {
	for _, errno := range []syscall.Errno{syscall.ENOTTY, syscall.EINVAL, syscall.EIO, syscall.EBADF} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return strings.Contains(err.Error(), "The handle is invalid")
}

// GetGlobalLogger returns the process logger, or a no-op logger before Get.
func GetGlobalLogger() *logr.Logger {
	if process.logr != nil {
		return process.logr
	}
	return &discard
}

// GetNoopLogger returns a logger that drops everything.
func GetNoopLogger() *logr.Logger { return &discard }

// WithValues returns a copy of lgr with keysAndValues attached.
func WithValues(lgr *logr.Logger, keysAndValues ...any) *logr.Logger {
	l := lgr.WithValues(keysAndValues...)
	return &l
}
