package render

import (
	"fmt"
	"html/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"git.home.luguber.info/inful/reportsite/internal/markdown"
)

// DateLayout renders dates as "Month Day, Year".
const DateLayout = "January 2, 2006"

type timeLike interface {
	Format(layout string) string
	IsZero() bool
}

// Funcs returns the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"date":          formatDate,
		"intcomma":      intComma,
		"formatSummary": formatSummary,
	}
}

func formatDate(v timeLike) string {
	if v.IsZero() {
		return ""
	}
	return v.Format(DateLayout)
}

func intComma(v any) (string, error) {
	p := message.NewPrinter(language.English)
	switch n := v.(type) {
	case int:
		return p.Sprintf("%d", n), nil
	case int32:
		return p.Sprintf("%d", n), nil
	case int64:
		return p.Sprintf("%d", n), nil
	case uint:
		return p.Sprintf("%d", n), nil
	case uint64:
		return p.Sprintf("%d", n), nil
	default:
		return "", fmt.Errorf("intcomma: unsupported value %T", v)
	}
}

func formatSummary(text string) (template.HTML, error) {
	out, err := markdown.FormatSummary(text)
	if err != nil {
		return "", err
	}
	// #nosec G203 -- goldmark output with raw HTML disabled
	return template.HTML(out), nil
}
