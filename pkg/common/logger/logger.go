package logger

import (
	"flag"
	"path"
	"time"

	"k8s.io/klog/v2"
)

// Constants for logging
const (
	LogName = "gpujob"

	LogToStderr     = "false"
	AlsoLogtoStderr = "true"
	V               = "4"
)

// Usage:
// logger.InitLogger()
// defer logger.Flush()
// logger.LogToDir(dir)
// klog.InfoS("xxx", "key", value)

// InitLogger registers klog flags on the default flag set and parses it.
// Flags defined before calling it are parsed together with the klog ones.
func InitLogger() {
	klog.InitFlags(nil)
	flag.Set("v", V)
	if !flag.Parsed() {
		flag.Parse()
	}
}

// LogToDir points klog at a timestamped file under logDir, still echoing to
// stderr. An empty logDir keeps logging to stderr only.
func LogToDir(logDir string) error {
	if logDir == "" {
		return nil
	}
	logName := LogName + "-" + time.Now().Format("20060102-030405") + ".log"
	for name, value := range map[string]string{
		"log_file":        path.Join(logDir, logName),
		"logtostderr":     LogToStderr,
		"alsologtostderr": AlsoLogtoStderr,
	} {
		if err := flag.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes all pending log I/O.
func Flush() {
	klog.Flush()
}
