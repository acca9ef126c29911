package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds a production JSON logger writing to stdout, and additionally to
// a size-rotated file when filePath is non-empty.
func New(appName, filePath string, maxSizeMB, maxAgeDays int) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	syncers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if filePath != "" {
		syncers = append(syncers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    maxSizeMB, // maximum size in megabytes before rotation
			MaxBackups: 7,
			MaxAge:     maxAgeDays,
			Compress:   false,
		}))
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(syncers...),
		zap.InfoLevel,
	)
	return zap.New(core).With(zap.String("service", appName))
}
