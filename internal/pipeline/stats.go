package pipeline

import (
	"fmt"
	"io"
	"strings"

	"adcraft/internal/gemini"
)

// Stats is the aggregate usage of a completed batch. It is computed by
// a single reduce over the collected per-run usage records, never
// accumulated under a lock while runs are in flight.
type Stats struct {
	Count       int
	TotalInput  int
	TotalOutput int
}

// Reduce sums the per-run usage records. Summation is field-wise, so
// the result does not depend on completion order.
func Reduce(usages []gemini.Usage) Stats {
	s := Stats{Count: len(usages)}
	for _, u := range usages {
		s.TotalInput += u.InputTokens
		s.TotalOutput += u.OutputTokens
	}
	return s
}

func (s Stats) AvgInput() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.TotalInput) / float64(s.Count)
}

func (s Stats) AvgOutput() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.TotalOutput) / float64(s.Count)
}

// WriteSummary prints the human-readable statistics banner.
func (s Stats) WriteSummary(w io.Writer) {
	rule := strings.Repeat("=", 50)
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "TOKEN USAGE STATISTICS")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total images processed: %d\n", s.Count)
	fmt.Fprintf(w, "Average input tokens: %.2f\n", s.AvgInput())
	fmt.Fprintf(w, "Average output tokens: %.2f\n", s.AvgOutput())
	fmt.Fprintf(w, "Total input tokens: %d\n", s.TotalInput)
	fmt.Fprintf(w, "Total output tokens: %d\n", s.TotalOutput)
	fmt.Fprintln(w, rule)
}
