package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a structured logger taking alternating key/value pairs.
type Logger struct {
	sugar    *zap.SugaredLogger
	redact   bool
	hashSalt string
}

// Options tune New.
type Options struct {
	Level    string // debug|info|warn|error
	Redact   bool   // hide secrets and hash reviewer names
	HashSalt string
}

// New builds a production (json) logger for mode "prod"/"production" and a
// development (console) logger otherwise.
func New(mode string, opts Options) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	if opts.Level != "" {
		lvl, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: z.Sugar(), redact: opts.Redact, hashSalt: opts.HashSalt}, nil
}

// Nop discards everything. Handy in tests and for optional collaborators.
func Nop() *Logger { return &Logger{sugar: zap.NewNop().Sugar()} }

func (l *Logger) Sync() { _ = l.sugar.Sync() }

func (l *Logger) Debug(msg string, kv ...interface{}) { l.sugar.Debugw(msg, l.clean(kv)...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.sugar.Infow(msg, l.clean(kv)...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.sugar.Warnw(msg, l.clean(kv)...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.sugar.Errorw(msg, l.clean(kv)...) }
func (l *Logger) Fatal(msg string, kv ...interface{}) { l.sugar.Fatalw(msg, l.clean(kv)...) }

func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(l.clean(kv)...), redact: l.redact, hashSalt: l.hashSalt}
}

// Middleware logs one line per request, tagged with chi's request id.
func (l *Logger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			l.Info("http request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func (l *Logger) clean(kv []interface{}) []interface{} {
	if !l.redact || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := fmt.Sprint(kv[i])
		out = append(out, key, l.cleanValue(strings.ToLower(key), kv[i+1]))
	}
	return out
}

func (l *Logger) cleanValue(key string, v interface{}) interface{} {
	switch {
	case secretKey(key):
		return "[REDACTED]"
	case key == "user" || key == "username" || key == "sub":
		return l.hash(fmt.Sprint(v))
	}
	return v
}

func secretKey(key string) bool {
	for _, s := range []string{"token", "authorization", "password", "secret", "hash"} {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

func (l *Logger) hash(s string) string {
	if s == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(l.hashSalt + s))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}
