package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/law-makers/dutyscrape/internal/coerce"
	"github.com/law-makers/dutyscrape/internal/ui"
	"github.com/law-makers/dutyscrape/pkg/models"
)

// Reporter receives every finished item, in order
type Reporter interface {
	Report(r models.Result)
}

// LineReporter prints one line per item: "<hsn> : <value>" or "<hsn> : NULL"
type LineReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLineReporter writes item lines to w
func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w}
}

// Report implements Reporter
func (l *LineReporter) Report(r models.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.w, Line(r))
}

// Line renders a result the way LineReporter prints it
func Line(r models.Result) string {
	prefix := r.Item.Code
	if c := r.Item.Country; c != nil {
		prefix = fmt.Sprintf("%s %s (%s)", r.Item.Code, c.Column, c.Code)
	}
	line := fmt.Sprintf("%s : %s", prefix, coerce.Format(r.Value))
	if r.WriteError != "" {
		line += " (not saved)"
	}
	return line
}

// JSONReporter prints one JSON object per item
type JSONReporter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONReporter writes newline-delimited results to w
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{enc: json.NewEncoder(w)}
}

// Report implements Reporter
func (j *JSONReporter) Report(r models.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()

	_ = j.enc.Encode(r)
}

// Discard drops every result
type Discard struct{}

// Report implements Reporter
func (Discard) Report(models.Result) {}

// Summary aggregates one batch
type Summary struct {
	RunID         string          `json:"run_id,omitempty"`
	Strategy      string          `json:"strategy"`
	Target        string          `json:"target"`
	Planned       int             `json:"planned"`
	Processed     int             `json:"processed"`
	Values        int             `json:"values"`
	Absent        int             `json:"absent"`
	Errors        int             `json:"errors"`
	WriteFailures int             `json:"write_failures"`
	Interrupted   bool            `json:"interrupted"`
	StartedAt     time.Time       `json:"started_at"`
	Elapsed       time.Duration   `json:"-"`
	ElapsedMs     int64           `json:"elapsed_ms"`
	Results       []models.Result `json:"-"`
}

func (s *Summary) add(r models.Result) {
	s.Processed++
	switch r.Status {
	case models.StatusValue:
		s.Values++
	case models.StatusAbsent:
		s.Absent++
	case models.StatusError:
		s.Errors++
	}
	if r.WriteError != "" {
		s.WriteFailures++
	}
	s.Results = append(s.Results, r)
}

// WriteJSON prints the summary as one JSON object
func (s *Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteText prints a short styled summary
func (s *Summary) WriteText(w io.Writer) {
	status := ui.Success("completed")
	if s.Interrupted {
		status = ui.Error("interrupted")
	}
	fmt.Fprintf(w, "\n%s %s into %s: %s\n", ui.Bold(s.Strategy), status, s.Target, s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  processed %d of %d\n", s.Processed, s.Planned)
	fmt.Fprintf(w, "  %s %d   %s %d   %s %d\n",
		ui.Success("values"), s.Values,
		ui.Info("not found"), s.Absent,
		ui.Error("errors"), s.Errors)
	if s.WriteFailures > 0 {
		fmt.Fprintf(w, "  %s %d\n", ui.Error("write failures"), s.WriteFailures)
		for _, r := range s.Results {
			if r.WriteError != "" {
				fmt.Fprintf(w, "    %s %s not saved\n", r.Key, ui.Outcome(string(r.Status)))
			}
		}
	}
}
