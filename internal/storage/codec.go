package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// labelSeparator joins label lists into a single column. Labels may contain
// commas, so a triple comma is used.
const labelSeparator = ",,,"

// thresholdSeparator joins per-substance thresholds.
const thresholdSeparator = ";"

// CheckLabel reports whether label survives JoinLabels and SplitLabels. It
// must be non-empty, must not contain the separator and must not end in a
// comma, since "a," followed by the separator reads as "a" then ",...".
func CheckLabel(label string) error {
	switch {
	case label == "":
		return fmt.Errorf("%w: empty label", ErrInvalidLabel)
	case strings.Contains(label, labelSeparator):
		return fmt.Errorf("%w: %q contains %q", ErrInvalidLabel, label, labelSeparator)
	case strings.HasSuffix(label, ","):
		return fmt.Errorf("%w: %q ends with a comma", ErrInvalidLabel, label)
	}
	return nil
}

// JoinLabels encodes a label list for storage.
func JoinLabels(labels []string) string {
	return strings.Join(labels, labelSeparator)
}

// SplitLabels decodes JoinLabels output. The empty string decodes to an
// empty list.
func SplitLabels(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, labelSeparator)
}

// FormatThresholds encodes thresholds as "1;2.5;0".
func FormatThresholds(thresholds []float64) string {
	parts := make([]string, len(thresholds))
	for i, t := range thresholds {
		parts[i] = strconv.FormatFloat(t, 'g', -1, 64)
	}
	return strings.Join(parts, thresholdSeparator)
}

// ParseThresholds decodes FormatThresholds output. Empty entries read as 0,
// and the empty string decodes to an empty vector.
func ParseThresholds(s string) ([]float64, error) {
	if s == "" {
		return []float64{}, nil
	}
	parts := strings.Split(s, thresholdSeparator)
	out := make([]float64, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("threshold %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
