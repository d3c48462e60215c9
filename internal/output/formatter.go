package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/matthewjhunter/cast/internal/catalog"
)

type Format string

const (
	FormatJSON  Format = "json"
	FormatText  Format = "text"
	FormatHuman Format = "human"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatText, FormatHuman:
		return f, nil
	}
	return "", fmt.Errorf("unknown format: %s", s)
}

type Formatter struct {
	format Format
	out    io.Writer
	err    io.Writer

	title lipgloss.Style
	link  lipgloss.Style
	muted lipgloss.Style
}

// NewFormatterWithWriters creates a formatter with custom output writers for testability
func NewFormatterWithWriters(format Format, out, errW io.Writer) *Formatter {
	r := lipgloss.NewRenderer(out)
	return &Formatter{
		format: format,
		out:    out,
		err:    errW,
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		link:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		muted:  r.NewStyle().Faint(true),
	}
}

// MutationResult describes the outcome of add, remove, subscribe,
// unsubscribe and import.
type MutationResult struct {
	Command  string `json:"command"`
	Argument string `json:"argument,omitempty"`
	Affected int64  `json:"affected"`
	Title    string `json:"title,omitempty"`
	Link     string `json:"link,omitempty"`
	Skipped  int    `json:"skipped,omitempty"`
}

// OutputFeedList outputs the catalog in store order.
func (f *Formatter) OutputFeedList(feeds []catalog.Feed) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(feeds)
	case FormatText:
		for _, feed := range feeds {
			fmt.Fprintf(f.out, "id=%d\ttitle=%s\tlink=%s\tsubscribed=%s\n",
				feed.ID, feed.Title, feed.Link, formatTime(feed.SubscribedAt))
		}
		return nil
	case FormatHuman:
		if len(feeds) == 0 {
			fmt.Fprintln(f.out, "No feeds in catalog")
			return nil
		}
		fmt.Fprintln(f.out)
		for _, feed := range feeds {
			title := f.title.Render(feed.Title)
			if feed.Subscribed() {
				title += " " + f.muted.Render("(subscribed)")
			}
			fmt.Fprintf(f.out, "  %s\n", title)
			fmt.Fprintf(f.out, "  %s\n", f.link.Render(feed.Link))
			fmt.Fprintln(f.out)
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputMutation outputs the result of a catalog mutation.
func (f *Formatter) OutputMutation(result *MutationResult) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(result)
	case FormatText:
		fmt.Fprintf(f.out, "command=%s\taffected=%d", result.Command, result.Affected)
		if result.Skipped > 0 {
			fmt.Fprintf(f.out, "\tskipped=%d", result.Skipped)
		}
		fmt.Fprintln(f.out)
		return nil
	case FormatHuman:
		switch {
		case result.Command == "add" && result.Affected > 0:
			fmt.Fprintf(f.out, "Added %s (%s)\n", f.title.Render(result.Title), f.link.Render(result.Link))
		case result.Command == "import":
			fmt.Fprintf(f.out, "Stored %d feeds", result.Affected)
			if result.Skipped > 0 {
				fmt.Fprintf(f.out, ", skipped %d unavailable", result.Skipped)
			}
			fmt.Fprintln(f.out)
		default:
			fmt.Fprintf(f.out, "%s %q: %d %s\n", result.Command, result.Argument, result.Affected, plural(result.Affected, "feed", "feeds"))
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// Warning outputs a warning message to stderr
func (f *Formatter) Warning(format string, args ...interface{}) {
	fmt.Fprintf(f.err, "Warning: "+format+"\n", args...)
}

// formatTime formats a time pointer for output
func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
