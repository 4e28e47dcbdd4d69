package database

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

// FilteredLogger is a GORM logger that drops trace lines for queries
// matching any of the ignored patterns, such as the periodic due-event scan.
type FilteredLogger struct {
	logger.Interface
	ignoredQueryPatterns []string
}

// NewFilteredLogger creates a new filtered logger with the given ignored query patterns
func NewFilteredLogger(l logger.Interface, ignoredPatterns ...string) *FilteredLogger {
	return &FilteredLogger{
		Interface:            l,
		ignoredQueryPatterns: ignoredPatterns,
	}
}

// LogMode implements logger.Interface
func (l *FilteredLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := l.Interface.LogMode(level)
	return &FilteredLogger{
		Interface:            newLogger,
		ignoredQueryPatterns: l.ignoredQueryPatterns,
	}
}

// Trace implements logger.Interface
func (l *FilteredLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	sql, rows := fc()

	// Skip logging if the SQL matches any of the ignored patterns
	for _, pattern := range l.ignoredQueryPatterns {
		if strings.Contains(sql, pattern) {
			return
		}
	}

	// Find the caller in the application code by examining the stack
	callerInfo := findCaller()

	wrappedFC := func() (string, int64) {
		if callerInfo != "" {
			return fmt.Sprintf("[Caller: %s] %s", callerInfo, sql), rows
		}
		return sql, rows
	}

	l.Interface.Trace(ctx, begin, wrappedFC, err)
}

// findCaller looks through the call stack to find the first non-GORM, non-database caller
func findCaller() string {
	for i := 2; i < 10; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		// Skip GORM internals and this package
		if strings.Contains(file, "gorm.io") ||
			strings.Contains(file, "internal/database") {
			continue
		}

		funcName := ""
		if fn := runtime.FuncForPC(pc); fn != nil {
			funcName = fn.Name()
			if idx := strings.LastIndexByte(funcName, '.'); idx != -1 {
				funcName = funcName[idx+1:]
			}
		}

		if funcName != "" {
			return fmt.Sprintf("%s() at %s:%d", funcName, file, line)
		}
		return fmt.Sprintf("%s:%d", file, line)
	}

	return ""
}
