package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cellviewer/internal/dataset"
	"cellviewer/internal/storage"
)

// Labels are the display names of a plate: rows, columns and the cells in
// row-major order
type Labels struct {
	Rows  []string `json:"rows"`
	Cols  []string `json:"cols"`
	Cells []string `json:"cells,omitempty"`
}

// Dimension returns the "<rows>x<cols>" size of the labels
func (l Labels) Dimension() string {
	return dataset.FormatDimension(len(l.Rows), len(l.Cols))
}

// DefaultLabels names rows by letter, columns by number and each cell
// "row_col".
func DefaultLabels(dim dataset.Dimension) Labels {
	rows := append([]string{}, dim.Letters...)
	cols := append([]string{}, dim.Numbers...)
	return Labels{Rows: rows, Cols: cols, Cells: cellLabels(rows, cols, nil)}
}

func cellLabels(rows, cols, overrides []string) []string {
	cells := make([]string, 0, len(rows)*len(cols))
	for i, r := range rows {
		for j, c := range cols {
			k := i*len(cols) + j
			if k < len(overrides) && overrides[k] != "" {
				cells = append(cells, overrides[k])
				continue
			}
			cells = append(cells, r+"_"+c)
		}
	}
	return cells
}

// ResolveLabels fills the blanks of overrides from defaults. An omitted list
// takes the defaults wholesale, a blank entry takes the default at the same
// position, and a blank cell is named after its resolved row and column.
func ResolveLabels(defaults, overrides Labels) (Labels, error) {
	rows, err := resolveList("rows", defaults.Rows, overrides.Rows)
	if err != nil {
		return Labels{}, err
	}
	cols, err := resolveList("cols", defaults.Cols, overrides.Cols)
	if err != nil {
		return Labels{}, err
	}
	if n := len(overrides.Cells); n != 0 && n != len(rows)*len(cols) {
		return Labels{}, fmt.Errorf("%w: %d cell labels for a %dx%d plate", ErrInvalidLabels, n, len(rows), len(cols))
	}
	return Labels{Rows: rows, Cols: cols, Cells: cellLabels(rows, cols, overrides.Cells)}, nil
}

func resolveList(kind string, defaults, overrides []string) ([]string, error) {
	if len(overrides) == 0 {
		return append([]string{}, defaults...), nil
	}
	if len(overrides) != len(defaults) {
		return nil, fmt.Errorf("%w: %d %s labels, want %d", ErrInvalidLabels, len(overrides), kind, len(defaults))
	}
	out := make([]string, len(defaults))
	for i, v := range overrides {
		if v == "" {
			v = defaults[i]
		}
		out[i] = v
	}
	return out, nil
}

// checkLabels rejects labels that cannot be stored and read back unchanged
func checkLabels(l Labels) error {
	for _, list := range [][]string{l.Rows, l.Cols, l.Cells} {
		for _, label := range list {
			if err := storage.CheckLabel(label); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidLabels, err)
			}
		}
	}
	return nil
}

// SaveLabelsRequest describes a label matrix to store
type SaveLabelsRequest struct {
	Name           string `json:"name" validate:"max=255"`
	Labels         Labels `json:"labels"`
	Public         bool   `json:"public"`
	KeepWhenUnused bool   `json:"keep_when_unused"`
}

// LabelService manages label matrices
type LabelService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewLabelService creates a new label service
func NewLabelService(store storage.Store, logger *slog.Logger) *LabelService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LabelService{
		store:  store,
		logger: logger.With(slog.String("component", "label_service")),
	}
}

// Save stores a label matrix, reusing an existing one with identical labels
func (s *LabelService) Save(ctx context.Context, req SaveLabelsRequest) (*storage.LabelMatrix, error) {
	l := req.Labels
	if len(l.Rows) == 0 || len(l.Cols) == 0 {
		return nil, fmt.Errorf("%w: rows and columns are required", ErrInvalidLabels)
	}
	if len(l.Cells) == 0 {
		l.Cells = cellLabels(l.Rows, l.Cols, nil)
	}
	if len(l.Cells) != len(l.Rows)*len(l.Cols) {
		return nil, fmt.Errorf("%w: %d cell labels for a %s plate", ErrInvalidLabels, len(l.Cells), l.Dimension())
	}
	if err := checkLabels(l); err != nil {
		return nil, err
	}

	matrix := &storage.LabelMatrix{
		Name:           req.Name,
		Rows:           l.Rows,
		Cols:           l.Cols,
		Cells:          l.Cells,
		Public:         req.Public,
		KeepWhenUnused: req.KeepWhenUnused,
	}

	existing, err := s.store.FindEquivalentLabelMatrix(ctx, matrix)
	if err == nil {
		s.logger.DebugContext(ctx, "reusing equivalent label matrix", slog.Int64("label_matrix_id", existing.ID))
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("find equivalent label matrix: %w", err)
	}

	if err := s.store.CreateLabelMatrix(ctx, matrix); err != nil {
		return nil, fmt.Errorf("create label matrix: %w", err)
	}
	s.logger.InfoContext(ctx, "label matrix created",
		slog.Int64("label_matrix_id", matrix.ID),
		slog.String("name", matrix.Name),
		slog.String("dimension", matrix.Dimension()))
	return matrix, nil
}

// Get returns a label matrix by ID
func (s *LabelService) Get(ctx context.Context, id int64) (*storage.LabelMatrix, error) {
	l, err := s.store.GetLabelMatrix(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrLabelNotFound, id)
	}
	return l, err
}

// List returns label matrices, optionally only those of one dimension
func (s *LabelService) List(ctx context.Context, dimension string) ([]*storage.LabelMatrix, error) {
	if dimension != "" {
		if _, _, err := dataset.ParseDimension(dimension); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	return s.store.ListLabelMatrices(ctx, storage.LabelFilter{Dimension: dimension})
}

// Delete removes a label matrix no job uses
func (s *LabelService) Delete(ctx context.Context, id int64) error {
	err := s.store.DeleteLabelMatrix(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %d", ErrLabelNotFound, id)
	case errors.Is(err, storage.ErrInUse):
		return fmt.Errorf("%w: %d", ErrLabelInUse, id)
	case err != nil:
		return err
	}
	s.logger.InfoContext(ctx, "label matrix deleted", slog.Int64("label_matrix_id", id))
	return nil
}
