// Package debug provides category-based debug logging for accolade.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): controlled via ACCOLADE_DEBUG env or config
//   - Levels (HOW MUCH detail): controlled via ACCOLADE_LOG_LEVEL env or config
//
// Usage:
//
//	debug.Log("auth", "token accepted", "subject", username)
//	if debug.Enabled("storage") { /* expensive formatting */ }
//
// Categories: auth, transport, storage, config, all.
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
//
// Credentials never reach the log: callers pass usernames and error
// values, not passwords, hashes, or tokens.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// LevelTrace is below slog.LevelDebug for maximum verbosity.
const LevelTrace = slog.LevelDebug - 4

// Known category names.
const (
	CategoryAuth      = "auth"
	CategoryTransport = "transport"
	CategoryStorage   = "storage"
	CategoryConfig    = "config"
	CategoryAll       = "all"
)

// categories holds the set of enabled debug categories.
// Access is read-only after Init(), so no synchronization needed.
var categories map[string]bool

func init() {
	categories = parseCategories(os.Getenv("ACCOLADE_DEBUG"))
}

// Options configures the process logger.
type Options struct {
	Categories string    // comma separated
	Level      string    // ERROR, WARN, INFO, DEBUG, TRACE
	Format     string    // "text" (default) or "json"
	Output     io.Writer // default os.Stderr
}

// Init configures the debug system and installs the default slog logger.
// Environment variables take precedence over the supplied options.
func Init(opts Options) {
	cats := os.Getenv("ACCOLADE_DEBUG")
	if cats == "" {
		cats = opts.Categories
	}
	categories = parseCategories(cats)

	level := os.Getenv("ACCOLADE_LOG_LEVEL")
	if level == "" {
		level = opts.Level
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	slog.SetDefault(slog.New(NewHandler(out, ParseLevel(level), opts.Format)))
}

// NewHandler builds the slog handler used by Init.
func NewHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	hopts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.NewJSONHandler(w, hopts)
	}
	return slog.NewTextHandler(w, hopts)
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	return categories[CategoryAll] || categories[category]
}

// Log emits a debug message for the given category.
// If the category is not enabled, this is a no-op.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the given category.
// Only visible when ACCOLADE_LOG_LEVEL=TRACE.
func Trace(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// ParseLevel converts a level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Categories returns the enabled categories in sorted order.
func Categories() []string {
	result := make([]string, 0, len(categories))
	for k := range categories {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	if s == "" {
		return m
	}
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
