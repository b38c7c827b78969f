// Package dataset loads the ONC REC county-level KPI CSV into memory.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jgoulah/ehrkpi/pkg/models"
)

// DefaultPath is the file name the dataset is published under.
const DefaultPath = "REC_KPI_County.csv"

// maxLineSize bounds a single line of the file.
const maxLineSize = 1024 * 1024

// naToken marks a count the reporting center did not supply.
const naToken = "NA"

// Column positions in the dataset, in file order.
const (
	colState = iota
	colStateCode
	colCountyName
	colStateFIPS
	colCountyFIPS
	colFIPS
	colPeriod
	colProvidersSignedUp
	colPrimaryCareSignedUp
	colProvidersGoLive
	colPrimaryCareGoLive
	colProvidersMeaningfulUse
	colPrimaryCareMeaningfulUse

	numColumns
)

// Columns lists the header names of the dataset in file order.
var Columns = [numColumns]string{
	"state",
	"state_code",
	"county_name",
	"state_fips",
	"county_fips",
	"fips",
	"period",
	"num_providers_signed_up",
	"num_primary_care_providers_signed_up",
	"num_providers_go_live",
	"num_primary_care_providers_go_live",
	"num_providers_meaningful_use",
	"num_primary_care_providers_meaningful_use",
}

// ErrShortRow is returned (wrapped in a RowError) for a line with fewer
// fields than the dataset defines.
var ErrShortRow = errors.New("too few fields")

// RowError reports a data line that could not be turned into a record.
type RowError struct {
	Line   int    // 1-based line number in the file
	Column string // empty when the whole row is at fault
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: column %s: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// LoadFile opens the dataset at path and loads every record in it.
// The file is closed before LoadFile returns.
func LoadFile(path string) ([]models.KPIRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer file.Close()

	records, err := Load(file)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return records, nil
}

// Load reads a dataset from r one line at a time. The first line is a header
// and is discarded; every following line becomes one record, in file order.
// The first malformed line aborts the load, including an empty one. A final
// newline does not start another line.
func Load(r io.Reader) ([]models.KPIRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	records := []models.KPIRecord{}

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
		return records, nil
	}

	line := 1
	for scanner.Scan() {
		line++

		row, err := splitLine(scanner.Text())
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}

		record, rowErr := parseRow(row)
		if rowErr != nil {
			rowErr.Line = line
			return nil, rowErr
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading line %d: %w", line+1, err)
	}

	return records, nil
}

// splitLine tokenises a single physical line. Quoted fields may hold commas
// but never span lines. An empty line yields no fields.
func splitLine(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	row, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	return row, err
}

// parseRow builds a record from one tokenised line. The returned RowError
// has no line number; the caller fills it in.
func parseRow(row []string) (models.KPIRecord, *RowError) {
	if len(row) < numColumns {
		return models.KPIRecord{}, &RowError{
			Err: fmt.Errorf("%w: got %d, want %d", ErrShortRow, len(row), numColumns),
		}
	}

	var fields [numColumns]string
	for i := range fields {
		fields[i] = stripQuotes(row[i])
	}

	var counts [numColumns]*int
	for i := colProvidersSignedUp; i < numColumns; i++ {
		n, err := parseCount(fields[i])
		if err != nil {
			return models.KPIRecord{}, &RowError{Column: Columns[i], Err: err}
		}
		counts[i] = n
	}

	return models.KPIRecord{
		State:      fields[colState],
		StateCode:  fields[colStateCode],
		CountyName: fields[colCountyName],
		StateFIPS:  fields[colStateFIPS],
		CountyFIPS: fields[colCountyFIPS],
		FIPS:       fields[colFIPS],
		Period:     fields[colPeriod],

		NumProvidersSignedUp:                 counts[colProvidersSignedUp],
		NumPrimaryCareProvidersSignedUp:      counts[colPrimaryCareSignedUp],
		NumProvidersGoLive:                   counts[colProvidersGoLive],
		NumPrimaryCareProvidersGoLive:        counts[colPrimaryCareGoLive],
		NumProvidersMeaningfulUse:            counts[colProvidersMeaningfulUse],
		NumPrimaryCareProvidersMeaningfulUse: counts[colPrimaryCareMeaningfulUse],
	}, nil
}

func stripQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// parseCount parses a provider count. "NA" yields nil. Counts are 32-bit in
// the published data dictionary, so anything wider is rejected.
func parseCount(s string) (*int, error) {
	if s == naToken {
		return nil, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return nil, err
	}
	v := int(n)
	return &v, nil
}
