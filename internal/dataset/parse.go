package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"cellviewer/internal/wellmatrix"
)

// RequiredColumns is the fixed header prefix of every upload.
var RequiredColumns = []string{"Well", "Site", "Cell"}

// ErrInvalidCSV is matched by every ParseError.
var ErrInvalidCSV = errors.New("invalid cytometry csv")

var (
	wellPattern  = regexp.MustCompile(`^[A-Z]\d{0,3}$`)
	indexPattern = regexp.MustCompile(`^\d+$`)
	valuePattern = regexp.MustCompile(`^-?\d+\.?\d*([eE][-+]?\d+)?$`)
)

// ParseError describes the first problem found in an upload. Line is 1-based
// and counts the header.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Is reports whether target is ErrInvalidCSV
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidCSV
}

// ParseBytes is Parse over an in-memory upload.
func ParseBytes(data []byte) (*wellmatrix.Dataset, error) {
	return Parse(bytes.NewReader(data))
}

// Parse reads a Well,Site,Cell,<substances...> CSV into a dataset.
func Parse(r io.Reader) (*wellmatrix.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Line: 1, Reason: "empty file"}
	}
	if err != nil {
		return nil, &ParseError{Line: 1, Reason: err.Error()}
	}
	substances, err := checkHeader(header)
	if err != nil {
		return nil, err
	}

	width := len(RequiredColumns) + len(substances)
	var rows []wellmatrix.Row
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Line: line, Reason: err.Error()}
		}
		if isBlank(record) {
			continue
		}
		if len(record) != width {
			return nil, &ParseError{Line: line, Reason: fmt.Sprintf("expected %d fields, got %d", width, len(record))}
		}

		row, err := parseRecord(record)
		if err != nil {
			return nil, &ParseError{Line: line, Reason: err.Error()}
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, &ParseError{Line: 2, Reason: "no data rows"}
	}
	return wellmatrix.NewDataset(substances, rows)
}

func checkHeader(header []string) ([]string, error) {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if len(header) <= len(RequiredColumns) {
		return nil, &ParseError{Line: 1, Reason: fmt.Sprintf("header must be %s followed by at least one substance", strings.Join(RequiredColumns, ","))}
	}
	for i, want := range RequiredColumns {
		if strings.TrimSpace(header[i]) != want {
			return nil, &ParseError{Line: 1, Reason: fmt.Sprintf("column %d must be %q, got %q", i+1, want, header[i])}
		}
	}

	substances := make([]string, 0, len(header)-len(RequiredColumns))
	seen := make(map[string]struct{})
	for _, name := range header[len(RequiredColumns):] {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, &ParseError{Line: 1, Reason: "empty substance name"}
		}
		if _, dup := seen[name]; dup {
			return nil, &ParseError{Line: 1, Reason: fmt.Sprintf("duplicate substance %q", name)}
		}
		seen[name] = struct{}{}
		substances = append(substances, name)
	}
	return substances, nil
}

func parseRecord(record []string) (wellmatrix.Row, error) {
	well := strings.TrimSpace(record[0])
	if !wellPattern.MatchString(well) {
		return wellmatrix.Row{}, fmt.Errorf("invalid well %q", record[0])
	}
	site, err := parseIndex("site", record[1])
	if err != nil {
		return wellmatrix.Row{}, err
	}
	cell, err := parseIndex("cell", record[2])
	if err != nil {
		return wellmatrix.Row{}, err
	}

	values := make([]float64, len(record)-len(RequiredColumns))
	for i, raw := range record[len(RequiredColumns):] {
		raw = strings.TrimSpace(raw)
		if !valuePattern.MatchString(raw) {
			return wellmatrix.Row{}, fmt.Errorf("invalid value %q in column %d", raw, i+len(RequiredColumns)+1)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return wellmatrix.Row{}, fmt.Errorf("invalid value %q: %w", raw, err)
		}
		values[i] = v
	}

	return wellmatrix.Row{Well: well, Site: site, Cell: cell, Values: values}, nil
}

func parseIndex(name, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if !indexPattern.MatchString(raw) {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return strconv.Atoi(raw)
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
