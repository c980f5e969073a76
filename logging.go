// FILE: logging.go
// Package main – Leveled logging to console and file.
//
// Two sinks:
//   • console (stdout) shows INFO and above
//   • a timestamped file under the log directory records DEBUG and above
//
// If the log file cannot be created the bot degrades to console-only and
// says so; it never refuses to run over a logging problem.

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

var (
	consoleLog = log.New(os.Stdout, "", log.Ldate|log.Ltime)
	fileLog    *log.Logger
	logFile    *os.File
)

// initLogging opens the per-run log file (e.g. logs/trading_bot_20260831_120000.log).
func initLogging(dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		consoleLog.Printf("[WARN] cannot create log dir %s: %v; console logging only", dir, err)
		return
	}
	name := filepath.Join(dir, fmt.Sprintf("trading_bot_%s.log", time.Now().Format("20060102_150405")))
	f, err := os.Create(name)
	if err != nil {
		consoleLog.Printf("[WARN] cannot open log file %s: %v; console logging only", name, err)
		return
	}
	logFile = f
	fileLog = log.New(f, "", log.Ldate|log.Ltime)
	logInfof("logging to file: %s", name)
}

func closeLogging() {
	if logFile != nil {
		_ = logFile.Close()
	}
}

func logAt(level, format string, v ...interface{}) {
	line := "[" + level + "] " + fmt.Sprintf(format, v...)
	if level != "DEBUG" {
		consoleLog.Println(line)
	}
	if fileLog != nil {
		fileLog.Println(line)
	}
}

// Debugf logs debug-level formatted messages (file sink only).
func logDebugf(format string, v ...interface{}) { logAt("DEBUG", format, v...) }

// Infof logs info-level formatted messages.
func logInfof(format string, v ...interface{}) { logAt("INFO", format, v...) }

// Warnf logs warning-level formatted messages.
func logWarnf(format string, v ...interface{}) { logAt("WARN", format, v...) }

// Errorf logs error-level formatted messages.
func logErrorf(format string, v ...interface{}) { logAt("ERROR", format, v...) }
