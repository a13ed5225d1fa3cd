package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyReport     = "report"
	KeyTopic      = "topic"
	KeyTemplate   = "template"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyWorkers    = "workers"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr    { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr    { return slog.String(KeyStage, name) }
func Report(number string) slog.Attr { return slog.String(KeyReport, number) }
func Topic(id int) slog.Attr         { return slog.Int(KeyTopic, id) }
func Template(name string) slog.Attr { return slog.String(KeyTemplate, name) }
func Path(p string) slog.Attr        { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr          { return slog.Int(KeyCount, n) }
func Workers(n int) slog.Attr        { return slog.Int(KeyWorkers, n) }

func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
