// Package logger prints tagged, optionally coloured console output.
package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	reset  = "\033[0m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
)

var mu sync.Mutex

// colorEnabled is evaluated per call because tests swap os.Stdout.
func colorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func paint(color, s string) string {
	if !colorEnabled() {
		return s
	}
	return color + s + reset
}

func line(color, level, tag, msg string) {
	mu.Lock()
	defer mu.Unlock()
	ts := paint(dim, time.Now().Format("15:04:05"))
	fmt.Fprintf(os.Stdout, "%s %s %s %s\n", ts, paint(color, level), paint(bold, "["+tag+"]"), msg)
}

// Info logs an informational message.
func Info(tag, msg string) { line(cyan, "INFO", tag, msg) }

// Success logs a completed step.
func Success(tag, msg string) { line(green, " OK ", tag, msg) }

// Warn logs a recoverable problem.
func Warn(tag, msg string) { line(yellow, "WARN", tag, msg) }

// Error logs a failure.
func Error(tag, msg string) { line(red, "FAIL", tag, msg) }

// Banner prints the startup banner.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(os.Stdout)
	fmt.Fprintln(os.Stdout, paint(bold+cyan, "  Bid Advisor"), paint(dim, version))
	fmt.Fprintln(os.Stdout, paint(dim, "  auction acquisition recommendations"))
	fmt.Fprintln(os.Stdout)
}

// Section prints a heading.
func Section(title string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(os.Stdout, "\n%s\n", paint(bold, "== "+title+" =="))
}

// Stats prints a key/value line.
func Stats(key string, value interface{}) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(os.Stdout, "  %-24s %v\n", paint(dim, key), value)
}

// Server announces the listen address.
func Server(addr string) {
	line(green, " OK ", "Server", "Listening on http://"+addr)
}
