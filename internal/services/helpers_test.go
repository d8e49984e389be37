package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"cellviewer/internal/config"
	"cellviewer/internal/shared/testutil"
	"cellviewer/internal/storage"
)

type testServices struct {
	store       *storage.MemoryStore
	analysis    *AnalysisService
	labels      *LabelService
	jobs        *JobService
	aggregation *AggregationService
	logs        *testutil.BufferedSlogHandler
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)
	cfg := config.Default().Analysis

	store := storage.NewMemoryStore()
	analysis := NewAnalysisService(cfg, nil, logger)
	labels := NewLabelService(store, logger)
	jobs := NewJobService(store, labels, analysis, nil, logger)
	return &testServices{
		store:       store,
		analysis:    analysis,
		labels:      labels,
		jobs:        jobs,
		aggregation: NewAggregationService(jobs, cfg, nil, logger),
		logs:        logs,
	}
}

// plate renders a rows x cols plate where every well holds the given
// OCT4/SOX2 value pairs.
func plate(rows, cols int, cells ...[2]float64) []byte {
	return testutil.PlateCSV(testutil.PlateSpec{
		Rows:         rows,
		Cols:         cols,
		CellsPerWell: len(cells),
		Sites:        2,
		Value: func(_ string, n, s int) float64 {
			return cells[n][s]
		},
	})
}

// failingStore fails every job listing
type failingStore struct {
	storage.Store
}

var errStoreDown = errors.New("store down")

func (failingStore) ListJobs(context.Context) ([]*storage.Job, error) {
	return nil, errStoreDown
}

// MockClientCounter is a mock for the ClientCounter interface
type MockClientCounter struct {
	mock.Mock
}

func (m *MockClientCounter) ClientCount() int {
	args := m.Called()
	return args.Int(0)
}
