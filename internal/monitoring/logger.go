// Package monitoring holds the diagnostic logging hook shared by the service
// packages.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Logger prefixes every line with a component tag and forwards to Logf.
// It reads Logf at call time so SetLogger also affects existing Loggers.
type Logger struct {
	component string
}

// For returns a Logger tagged with component, e.g. "[gp] ...".
func For(component string) Logger {
	return Logger{component: component}
}

// Printf formats and logs a message through Logf.
func (l Logger) Printf(format string, v ...interface{}) {
	if l.component == "" {
		Logf(format, v...)
		return
	}
	Logf("["+l.component+"] "+format, v...)
}
