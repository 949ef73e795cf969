// Package table holds the loaded reviews together with the display window
// and sort state, and serializes the window for export.
package table

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/JakeFAU/storefront-reviews/internal/reviews"
)

// DefaultWindow is the window cap applied after each successful fetch.
const DefaultWindow = 50

// Key names a sortable column.
type Key string

// Sortable columns.
const (
	KeyDate    Key = "date"
	KeyVersion Key = "version"
	KeyRating  Key = "rating"
	KeyAuthor  Key = "author"
	KeyContent Key = "content"
)

// Kind selects how a column is compared.
type Kind string

// Comparison kinds.
const (
	KindNumeric Kind = "numeric"
	KindDate    Kind = "date"
	KindLexical Kind = "lexical"
)

// Direction is the applied sort order.
type Direction string

// Sort directions.
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Header is the column header shared by CSV and TSV output.
var Header = []string{"Date", "Version", "Rating", "Author", "Title", "Review"}

const bom = "\ufeff"

// DateLayout renders dates as a US short date.
const DateLayout = "1/2/2006"

// SortState describes the most recent sort. Zero value means unsorted.
type SortState struct {
	Key       Key       `json:"key,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

// Sorted reports whether any sort has been applied since the last replace.
func (s SortState) Sorted() bool {
	return s.Key != ""
}

// ParseKey validates a column name.
func ParseKey(s string) (Key, error) {
	k := Key(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KeyDate, KeyVersion, KeyRating, KeyAuthor, KeyContent:
		return k, nil
	}
	return "", &reviews.InvalidInputError{Reason: fmt.Sprintf("unknown sort column %q", s)}
}

// ParseKind validates a comparison kind. Empty selects DefaultKind(key).
func ParseKind(s string, key Key) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case "":
		return DefaultKind(key), nil
	case KindNumeric, KindDate, KindLexical:
		return k, nil
	}
	return "", &reviews.InvalidInputError{Reason: fmt.Sprintf("unknown sort kind %q", s)}
}

// DefaultKind returns the natural comparison for a column.
func DefaultKind(key Key) Kind {
	switch key {
	case KeyDate:
		return KindDate
	case KeyRating:
		return KindNumeric
	default:
		return KindLexical
	}
}

// Table is safe for concurrent use.
type Table struct {
	mu            sync.RWMutex
	rows          []reviews.Review
	window        int
	defaultWindow int
	sort          SortState
}

// New returns an empty table. A non-positive defaultWindow selects DefaultWindow.
func New(defaultWindow int) *Table {
	if defaultWindow <= 0 {
		defaultWindow = DefaultWindow
	}
	return &Table{window: defaultWindow, defaultWindow: defaultWindow}
}

// ReplaceAll swaps in a new sequence, forgetting sort state and resetting the
// window to the default cap.
func (t *Table) ReplaceAll(rows []reviews.Review) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = slices.Clone(rows)
	t.window = t.defaultWindow
	t.sort = SortState{}
}

// Clear empties the table.
func (t *Table) Clear() {
	t.ReplaceAll(nil)
}

// SetWindow changes how many reviews are shown. Negative sizes become 0.
func (t *Table) SetWindow(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.window = max(n, 0)
}

// WindowSize returns the configured window size, which may exceed Len.
func (t *Table) WindowSize() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.window
}

// Len returns the total number of loaded reviews.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Window returns a copy of the visible reviews in the current order.
func (t *Table) Window() []reviews.Review {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.visible())
}

// Sort returns the current sort state.
func (t *Table) Sort() SortState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sort
}

// Summary reports shown versus total, e.g. "(50/200) reviews".
func (t *Table) Summary() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fmt.Sprintf("(%d/%d) reviews", len(t.visible()), len(t.rows))
}

// SortBy stably reorders the whole sequence and returns the direction used.
// Sorting the same column twice in a row flips ascending to descending; any
// other call sorts ascending.
func (t *Table) SortBy(key Key, kind Kind) Direction {
	t.mu.Lock()
	defer t.mu.Unlock()

	dir := Ascending
	if t.sort.Key == key && t.sort.Direction == Ascending {
		dir = Descending
	}
	cmpFn := comparator(key, kind)
	slices.SortStableFunc(t.rows, func(a, b reviews.Review) int {
		c := cmpFn(a, b)
		if dir == Descending {
			return -c
		}
		return c
	})
	t.sort = SortState{Key: key, Direction: dir}
	return dir
}

// View is the table state read under a single lock.
type View struct {
	Rows       []reviews.Review
	Total      int
	WindowSize int
	Sort       SortState
	Summary    string
}

// View captures the visible rows together with the counts and sort state
// they were derived from.
func (t *Table) View() View {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rows := slices.Clone(t.visible())
	return View{
		Rows:       rows,
		Total:      len(t.rows),
		WindowSize: t.window,
		Sort:       t.sort,
		Summary:    fmt.Sprintf("(%d/%d) reviews", len(rows), len(t.rows)),
	}
}

// SerializeCSV renders the visible reviews as BOM-prefixed CSV. The header
// is plain; every data field is quoted. It fails only when nothing is loaded,
// so a zero window still yields the header.
func (t *Table) SerializeCSV() ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.rows) == 0 {
		return nil, reviews.ErrEmptyTable
	}
	rows := t.visible()

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(Header, ","))
	for _, r := range rows {
		lines = append(lines, joinQuoted(Fields(r)))
	}
	return []byte(bom + strings.Join(lines, "\n")), nil
}

// SerializeTSV renders the visible reviews as tab separated text for
// pasting into spreadsheets. Tabs and line breaks inside fields become spaces.
func (t *Table) SerializeTSV() ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.rows) == 0 {
		return nil, reviews.ErrEmptyTable
	}
	rows := t.visible()

	var b strings.Builder
	b.WriteString(strings.Join(Header, "\t"))
	for _, r := range rows {
		b.WriteByte('\n')
		fields := Fields(r)
		for i, f := range fields {
			fields[i] = tsvEscaper.Replace(f)
		}
		b.WriteString(strings.Join(fields, "\t"))
	}
	return []byte(b.String()), nil
}

// Fields returns the export cells of r in Header order.
func Fields(r reviews.Review) []string {
	return []string{
		FormatDate(r),
		r.Version,
		strconv.Itoa(r.Rating),
		r.Author,
		r.Title,
		r.Body,
	}
}

// FormatDate prints the submission date in its own offset, or "" when unknown.
func FormatDate(r reviews.Review) string {
	if !r.DateKnown() {
		return ""
	}
	return r.SubmittedAt.Format(DateLayout)
}

var tsvEscaper = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

func (t *Table) visible() []reviews.Review {
	return t.rows[:min(t.window, len(t.rows))]
}

func joinQuoted(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

func comparator(key Key, kind Kind) func(a, b reviews.Review) int {
	switch kind {
	case KindNumeric:
		return func(a, b reviews.Review) int {
			return cmp.Compare(numericValue(a, key), numericValue(b, key))
		}
	case KindDate:
		return func(a, b reviews.Review) int {
			return dateValue(a, key).Compare(dateValue(b, key))
		}
	default:
		return func(a, b reviews.Review) int {
			return strings.Compare(strings.ToLower(textValue(a, key)), strings.ToLower(textValue(b, key)))
		}
	}
}

func textValue(r reviews.Review, key Key) string {
	switch key {
	case KeyDate:
		return FormatDate(r)
	case KeyVersion:
		return r.Version
	case KeyRating:
		return strconv.Itoa(r.Rating)
	case KeyAuthor:
		return r.Author
	case KeyContent:
		return r.Title + "\n" + r.Body
	}
	return ""
}

// numericValue yields the leading number of a cell; cells without one count as 0.
func numericValue(r reviews.Review, key Key) float64 {
	switch key {
	case KeyRating:
		return float64(r.Rating)
	case KeyDate:
		if !r.DateKnown() {
			return 0
		}
		return float64(r.SubmittedAt.Unix())
	}
	return leadingNumber(textValue(r, key))
}

func dateValue(r reviews.Review, key Key) time.Time {
	if key == KeyDate {
		return r.SubmittedAt
	}
	parsed, err := time.Parse(DateLayout, textValue(r, key))
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func leadingNumber(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	seenDot := false
scan:
	for ; end < len(s); end++ {
		c := s[end]
		switch {
		case c >= '0' && c <= '9':
		case c == '.' && !seenDot:
			seenDot = true
		case (c == '-' || c == '+') && end == 0:
		default:
			break scan
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0
	}
	return v
}
