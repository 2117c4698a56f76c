package transport

import (
	"github.com/greenbone/gsa-sub043/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

// leveledLogger 将 retryablehttp 的日志转到 logrus
// retryablehttp 的 Error 日志在重试时也会出现，这里降为 Warn
type leveledLogger struct{}

func (leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	entry(keysAndValues).Warn(msg)
}

func (leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	entry(keysAndValues).Info(msg)
}

func (leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	entry(keysAndValues).Debug(msg)
}

func (leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	entry(keysAndValues).Warn(msg)
}

func entry(keysAndValues []interface{}) *logrus.Entry {
	fields := logrus.Fields{"component": "transport"}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return logger.WithFields(fields)
}
