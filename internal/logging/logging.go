// Package logging is a thin leveled logger used across the service. It can be
// globally disabled for quiet CLI output.
package logging

import (
	"log"
	"os"
)

var (
	disabled = false
	logger   = log.New(os.Stdout, "", log.LstdFlags)
)

// Disable turns off all logging (used by one-shot CLI commands).
func Disable() {
	disabled = true
}

// Enable turns logging back on.
func Enable() {
	disabled = false
}

// Infof logs a formatted info message.
func Infof(format string, v ...any) {
	if !disabled {
		logger.Printf(format, v...)
	}
}

// Warnf logs a formatted warning message.
func Warnf(format string, v ...any) {
	if !disabled {
		logger.Printf("WARN "+format, v...)
	}
}

// Errorf logs a formatted error message.
func Errorf(format string, v ...any) {
	if !disabled {
		logger.Printf("ERROR "+format, v...)
	}
}

// Component returns a logger that prefixes every line with [name], matching
// the operational log style used throughout the agent.
func Component(name string) Logger {
	return Logger{prefix: "[" + name + "] "}
}

// Logger is a component-scoped logger.
type Logger struct {
	prefix string
}

// Infof logs a formatted info message with the component prefix.
func (l Logger) Infof(format string, v ...any) {
	Infof(l.prefix+format, v...)
}

// Warnf logs a formatted warning message with the component prefix.
func (l Logger) Warnf(format string, v ...any) {
	Warnf(l.prefix+format, v...)
}

// Errorf logs a formatted error message with the component prefix.
func (l Logger) Errorf(format string, v ...any) {
	Errorf(l.prefix+format, v...)
}
