package dashboard

import (
	"html/template"
	"strings"

	"github.com/zulandar/ribbonlog/internal/models"
)

var templateFuncs = template.FuncMap{
	"imageURL":    imageURL,
	"statusClass": statusClass,
	"plural":      plural,
	"truncate":    truncate,
}

// imageURL lets a stored image data URL through html/template's URL filter.
// Anything other than an image data URL renders as empty.
func imageURL(s string) template.URL {
	if !strings.HasPrefix(s, "data:image/") {
		return ""
	}
	return template.URL(s)
}

func statusClass(s models.Status) string {
	if !s.Valid() {
		return "status-unknown"
	}
	return "status-" + string(s)
}

// plural renders "1 resultado" or "N resultados".
func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// truncate shortens s to at most n runes, adding "..." if truncated.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
