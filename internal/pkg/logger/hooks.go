package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/greenbone/gsa-sub043/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileHook 将不同类型的日志写入不同的文件
type FileHook struct {
	logConfig *config.LogConfig
	writers   map[string]io.Writer
	formatter logrus.Formatter
	mutex     sync.Mutex
}

// NewFileHook 创建一个新的FileHook实例
func NewFileHook(logConfig *config.LogConfig) *FileHook {
	hook := &FileHook{
		logConfig: logConfig,
		writers:   make(map[string]io.Writer),
		formatter: newJSONFormatter(),
	}
	if logConfig.FilePath != "" {
		hook.writers["default"] = hook.newWriter(logConfig.FilePath)
	}
	return hook
}

// Levels 返回此Hook关心的所有日志级别
func (hook *FileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire 在日志触发时执行
func (hook *FileHook) Fire(entry *logrus.Entry) error {
	logType := "default"
	switch t := entry.Data["type"].(type) {
	case LogType:
		logType = string(t)
	case string:
		logType = t
	}

	writer := hook.getWriter(logType)
	if writer == nil {
		return nil
	}

	formatted, err := hook.formatter.Format(entry)
	if err != nil {
		return err
	}

	hook.mutex.Lock()
	defer hook.mutex.Unlock()
	_, err = writer.Write(formatted)
	return err
}

// getWriter 获取指定类型的writer，如果不存在则创建
func (hook *FileHook) getWriter(logType string) io.Writer {
	hook.mutex.Lock()
	defer hook.mutex.Unlock()

	if writer, exists := hook.writers[logType]; exists {
		return writer
	}

	switch LogType(logType) {
	case AccessLog, CommandLog, ErrorLog, SystemLog:
	default:
		// 未知类型写入主日志文件
		return hook.writers["default"]
	}

	logDir := filepath.Dir(hook.logConfig.FilePath)
	writer := hook.newWriter(filepath.Join(logDir, logType+".log"))
	hook.writers[logType] = writer
	return writer
}

func (hook *FileHook) newWriter(filename string) io.Writer {
	// 确保日志目录存在
	_ = os.MkdirAll(filepath.Dir(filename), 0755)
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    hook.logConfig.MaxSize,
		MaxBackups: hook.logConfig.MaxBackups,
		MaxAge:     hook.logConfig.MaxAge,
		Compress:   hook.logConfig.Compress,
	}
}

// redactedValue 替换敏感字段后的值
const redactedValue = "******"

// secretFields 值需要隐藏的日志字段
var secretFields = map[string]bool{
	"password":     true,
	"lsc_password": true,
	"token":        true,
	"passphrase":   true,
}

// secretQuery URL 或表单中的 token=... / password=...
var secretQuery = regexp.MustCompile(`((?:^|[?&\s])(?:token|password|lsc_password)=)[^&\s]*`)

// RedactHook 隐藏日志中的 gsad 会话 token 与密码
// retryablehttp 的调试日志包含完整 URL，GET 请求的 token 在查询参数中
type RedactHook struct{}

// Levels 返回此Hook关心的所有日志级别
func (RedactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire 替换敏感字段与字符串中的敏感参数
func (RedactHook) Fire(entry *logrus.Entry) error {
	for key, value := range entry.Data {
		if secretFields[key] {
			entry.Data[key] = redactedValue
			continue
		}
		switch v := value.(type) {
		case string:
			entry.Data[key] = RedactQuery(v)
		case fmt.Stringer:
			entry.Data[key] = RedactQuery(v.String())
		}
	}
	entry.Message = RedactQuery(entry.Message)
	return nil
}

// RedactQuery 隐藏查询字符串中的 token / password 参数值
func RedactQuery(s string) string {
	return secretQuery.ReplaceAllString(s, "${1}"+redactedValue)
}
