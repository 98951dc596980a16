package utils

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ANSI colour codes
const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	cyan   = "\033[36m"
)

var (
	outMu sync.Mutex
	out   io.Writer = os.Stdout
)

// SetOutput redirects log lines, mostly for tests. It returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	prev := out
	out = w
	return prev
}

func ts() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func emit(colour, level, format string, a ...interface{}) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(out, "%s[%s] %s %s%s\n", colour, ts(), level, fmt.Sprintf(format, a...), reset)
}

func Info(format string, a ...interface{}) {
	emit(blue, "[INFO] ", format, a...)
}

func Success(format string, a ...interface{}) {
	emit(green, "[OK]   ", format, a...)
}

func Warn(format string, a ...interface{}) {
	emit(yellow, "[WARN] ", format, a...)
}

func Error(format string, a ...interface{}) {
	emit(red, "[ERROR]", format, a...)
}

func Section(title string) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(out, "\n%s[%s] ══════════ %s ══════════%s\n\n", cyan, ts(), title, reset)
}
