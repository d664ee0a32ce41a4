/*
Package typedtable – logging interface.
*/
package typedtable

import (
	"encoding/json"
	"fmt"
	"log"
)

// Logger is the interface callers may supply to converters and executors.
// Each method receives a structured context map (may be nil).
type Logger interface {
	Trace(message string, ctx map[string]any)
	Info(message string, ctx map[string]any)
	Error(message string, ctx map[string]any)
	Data(message string, ctx map[string]any)
}

const (
	levelTrace = "trace"
	levelInfo  = "info"
	levelError = "error"
	levelData  = "data"
)

// stdLogger writes to the standard library logger, one line per event:
//
//	typedtable info  Retrying unprocessed items {"items":1,"request":"..."}
//
// Trace and data events are dropped unless verbose is set.
type stdLogger struct {
	verbose bool
}

func (l stdLogger) Trace(msg string, ctx map[string]any) { l.emit(levelTrace, msg, ctx) }
func (l stdLogger) Data(msg string, ctx map[string]any)  { l.emit(levelData, msg, ctx) }
func (l stdLogger) Info(msg string, ctx map[string]any)  { l.emit(levelInfo, msg, ctx) }
func (l stdLogger) Error(msg string, ctx map[string]any) { l.emit(levelError, msg, ctx) }

func (l stdLogger) emit(level, msg string, ctx map[string]any) {
	if !l.verbose && (level == levelTrace || level == levelData) {
		return
	}
	log.Print(formatLine(level, msg, ctx))
}

// formatLine renders ctx as JSON with sorted keys; unencodable values fall
// back to %v.
func formatLine(level, msg string, ctx map[string]any) string {
	line := fmt.Sprintf("typedtable %-5s %s", level, msg)
	if len(ctx) == 0 {
		return line
	}
	b, err := json.Marshal(ctx)
	if err != nil {
		return fmt.Sprintf("%s %v", line, ctx)
	}
	return line + " " + string(b)
}

// FuncLogger wraps a plain function: func(level, message string, ctx map[string]any).
type FuncLogger struct {
	Fn func(level, message string, ctx map[string]any)
}

func (f FuncLogger) Trace(msg string, ctx map[string]any) { f.Fn(levelTrace, msg, ctx) }
func (f FuncLogger) Data(msg string, ctx map[string]any)  { f.Fn(levelData, msg, ctx) }
func (f FuncLogger) Info(msg string, ctx map[string]any)  { f.Fn(levelInfo, msg, ctx) }
func (f FuncLogger) Error(msg string, ctx map[string]any) { f.Fn(levelError, msg, ctx) }

// NopLogger silently discards everything.
type NopLogger struct{}

func (NopLogger) Trace(string, map[string]any) {}
func (NopLogger) Data(string, map[string]any)  {}
func (NopLogger) Info(string, map[string]any)  {}
func (NopLogger) Error(string, map[string]any) {}

// pickLogger resolves the logger from the Logger/Verbose pair found on the
// params structs.
func pickLogger(l Logger, verbose bool) Logger {
	if l != nil {
		return l
	}
	return stdLogger{verbose: verbose}
}
