package logger

import (
	"fmt"

	klog "github.com/go-kratos/kratos/v2/log"
	"github.com/sirupsen/logrus"
)

// kratosLogger 将 kratos 日志转发到 logrus
type kratosLogger struct {
	log logrus.FieldLogger
}

// NewKratosLogger 供 kratos 应用和 HTTP 服务使用
func NewKratosLogger(log logrus.FieldLogger) klog.Logger {
	return &kratosLogger{log: log}
}

func (k *kratosLogger) Log(level klog.Level, keyvals ...any) error {
	if len(keyvals) == 0 {
		return nil
	}
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "KEYVALS UNPAIRED")
	}

	var msg string
	fields := make(logrus.Fields, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if key == klog.DefaultMessageKey {
			msg = fmt.Sprint(keyvals[i+1])
			continue
		}
		fields[key] = keyvals[i+1]
	}

	entry := k.log.WithFields(fields)
	switch level {
	case klog.LevelDebug:
		entry.Debug(msg)
	case klog.LevelWarn:
		entry.Warn(msg)
	case klog.LevelError, klog.LevelFatal:
		// Fatal 不退出进程，由 kratos 应用自行处理
		entry.Error(msg)
	default:
		entry.Info(msg)
	}
	return nil
}
