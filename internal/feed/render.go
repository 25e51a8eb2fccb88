package feed

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/example/inventory-backend/internal/models"
)

// Render writes a plain-text rendition of v.
func Render(w io.Writer, v View, now time.Time) error {
	var b strings.Builder

	switch v.State {
	case StateConnecting:
		b.WriteString("Activity Log · Connecting…\n")
	case StateError:
		b.WriteString("Activity Log · Disconnected\n")
		b.WriteString("Failed to load activity logs\n")
	default:
		b.WriteString("Activity Log · Live\n")
		if len(v.Entries) == 0 {
			b.WriteString("No activity yet\n")
		}
		for _, e := range v.Entries {
			b.WriteString(Line(e, now))
			b.WriteByte('\n')
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Line renders one entry, e.g.
// [CREATE PRODUCT] created product "Widget" · 3 minutes ago
func Line(e models.ProductLogEntry, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", Badge(e.Action), ActionText(e.Action))
	if e.ProductName != "" {
		fmt.Fprintf(&b, " %q", e.ProductName)
	}
	if t, err := e.Time(); err == nil {
		b.WriteString(" · ")
		b.WriteString(humanize.RelTime(t, now, "ago", "from now"))
	}
	return b.String()
}

// Badge is the action with its first underscore replaced by a space.
func Badge(action models.ProductAction) string {
	return strings.Replace(string(action), "_", " ", 1)
}

// ActionText is the verb phrase shown for action.
func ActionText(action models.ProductAction) string {
	switch action {
	case models.ActionCreateProduct:
		return "created product"
	case models.ActionUpdateProduct:
		return "updated product"
	case models.ActionDeleteProduct:
		return "deleted product"
	default:
		return "performed action on product"
	}
}
