// Package report prints the record count and the distinct states of a
// loaded dataset.
package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/jgoulah/ehrkpi/internal/dataset"
	"github.com/jgoulah/ehrkpi/pkg/models"
)

// Options controls how the state list is printed.
type Options struct {
	// Sort orders states by state code. By default they appear in the
	// order they were first seen in the dataset.
	Sort bool
}

// Write prints "Records: N" with N grouped by thousands, followed by one
// "(State, StateCode, StateFIPS)" line per distinct state.
func Write(w io.Writer, records []models.KPIRecord, opts Options) error {
	states := dataset.UniqueStates(records)
	if opts.Sort {
		dataset.SortStates(states)
	}

	if err := WriteCount(w, len(records)); err != nil {
		return err
	}
	return WriteStates(w, states)
}

// WriteCount prints the record count line.
func WriteCount(w io.Writer, n int) error {
	if _, err := fmt.Fprintf(w, "Records: %s\n", humanize.Comma(int64(n))); err != nil {
		return fmt.Errorf("writing count: %w", err)
	}
	return nil
}

// WriteStates prints one line per state triple.
func WriteStates(w io.Writer, states []models.StateKey) error {
	for _, s := range states {
		if _, err := fmt.Fprintln(w, s); err != nil {
			return fmt.Errorf("writing states: %w", err)
		}
	}
	return nil
}
