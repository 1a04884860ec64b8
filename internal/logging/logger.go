package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the service logger: JSON to a size-rotated file under
// logDir plus the same stream to stderr. The retention sweeper only manages
// per-run artifact logs; the service log rotates through lumberjack.
func NewLogger(logDir, level string, maxSizeMB, maxAgeDays int) (*zap.Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	if maxAgeDays <= 0 {
		maxAgeDays = 14
	}
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, "sitewatch.log"),
		MaxSize:    maxSizeMB,
		MaxBackups: 5,
		MaxAge:     maxAgeDays,
		Compress:   true,
	})

	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.Set(level); err != nil {
			lvl = zapcore.InfoLevel
		}
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	enc := zapcore.NewJSONEncoder(cfg)
	core := zapcore.NewTee(
		zapcore.NewCore(enc, w, lvl),
		zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), lvl),
	)
	return zap.New(core), nil
}
