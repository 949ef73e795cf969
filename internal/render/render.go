// Package render draws the review window as a terminal table.
package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/JakeFAU/storefront-reviews/internal/reviews"
	"github.com/JakeFAU/storefront-reviews/internal/table"
)

// DefaultMaxCell caps the printed width of a single cell.
const DefaultMaxCell = 48

// Styles groups the lipgloss styles used by the table.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	Muted  lipgloss.Style
	Stars  lipgloss.Style
}

// Renderer formats review windows for a particular output.
type Renderer struct {
	styles Styles
	clip   lipgloss.Style
}

// New returns a Renderer whose color profile is detected from w.
func New(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		styles: Styles{
			Title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
			Header: r.NewStyle().Bold(true).Padding(0, 1),
			Cell:   r.NewStyle().Padding(0, 1),
			Muted:  r.NewStyle().Foreground(lipgloss.Color("8")),
			Stars:  r.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1),
		},
		clip: r.NewStyle().MaxWidth(DefaultMaxCell),
	}
}

// Stars renders a 0-5 rating as filled and empty stars.
func Stars(rating int) string {
	rating = min(max(rating, 0), 5)
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

const ratingColumn = 2

// Table renders rows under an optional title. Long cells are cut to
// DefaultMaxCell and line breaks are flattened.
func (r *Renderer) Table(title string, rows []reviews.Review) string {
	if len(rows) == 0 {
		return ""
	}

	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, []string{
			table.FormatDate(row),
			row.Version,
			Stars(row.Rating),
			row.Author,
			row.Title,
			row.Body,
		})
	}

	for _, line := range cells {
		for i, c := range line {
			line[i] = r.clip.Render(flatten(c))
		}
	}

	widths := make([]int, len(table.Header))
	for i, h := range table.Header {
		widths[i] = lipgloss.Width(h)
	}
	for _, line := range cells {
		for i, c := range line {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}
	// Width includes the horizontal padding.
	for i := range widths {
		widths[i] += 2
	}

	var sb strings.Builder
	if title != "" {
		sb.WriteString(r.styles.Title.Render(title))
		sb.WriteString("\n")
	}

	sep := r.styles.Muted.Render("|")
	for i, h := range table.Header {
		sb.WriteString(r.styles.Header.Width(widths[i]).Render(h))
		if i < len(table.Header)-1 {
			sb.WriteString(sep)
		}
	}
	sb.WriteString("\n")

	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(r.styles.Muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")

	for _, line := range cells {
		for i, c := range line {
			style := r.styles.Cell
			if i == ratingColumn {
				style = r.styles.Stars
			}
			sb.WriteString(style.Width(widths[i]).Render(c))
			if i < len(line)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Status renders the summary line and an optional message beneath the table.
func (r *Renderer) Status(summary, message string) string {
	out := r.styles.Muted.Render(summary)
	if message != "" {
		out += "\n" + message
	}
	return out + "\n"
}

var flattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

func flatten(s string) string {
	return flattener.Replace(s)
}
