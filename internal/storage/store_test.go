package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellviewer/internal/shared/testutil"
)

// storeFactories lets every behaviour test run against both implementations.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store {
			logger, _ := testutil.NewTestLogger(t)
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "cellviewer.db"), logger)
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t))
		})
	}
}

func newFile(name, checksum string) *File {
	return &File{
		OriginalName: name,
		Checksum:     checksum,
		Size:         42,
		RowCount:     6,
		Dimension:    "2x3",
		Substances:   []string{"OCT4", "SOX2"},
		Data:         []byte("Well,Site,Cell,OCT4,SOX2\n"),
	}
}

func newLabels(name string) *LabelMatrix {
	return &LabelMatrix{
		Name:  name,
		Rows:  []string{"A", "B"},
		Cols:  []string{"01", "02", "03"},
		Cells: []string{"A_01", "A_02", "A_03", "B_01", "B_02", "B_03"},
	}
}

func createJob(t *testing.T, s Store, name string, checksums ...string) (*Job, *LabelMatrix) {
	t.Helper()
	ctx := context.Background()

	labels := newLabels("")
	require.NoError(t, s.CreateLabelMatrix(ctx, labels))

	job := &Job{Name: name, Dimension: "2x3", LabelMatrixID: labels.ID}
	for _, sum := range checksums {
		f, err := s.FindFileByChecksum(ctx, sum)
		if err != nil {
			f = newFile(sum+".csv", sum)
			require.NoError(t, s.CreateFile(ctx, f))
		}
		job.Files = append(job.Files, JobFile{FileID: f.ID, OriginalName: f.OriginalName, Thresholds: []float64{1, 2}})
	}
	require.NoError(t, s.CreateJob(ctx, job))
	return job, labels
}

func TestFiles(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		f := newFile("plate.csv", "abc")
		require.NoError(t, s.CreateFile(ctx, f))
		assert.NotZero(t, f.ID)
		assert.False(t, f.CreatedAt.IsZero())

		got, err := s.GetFile(ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, f.OriginalName, got.OriginalName)
		assert.Equal(t, f.Substances, got.Substances)
		assert.Equal(t, f.Data, got.Data)
		assert.Equal(t, "2x3", got.Dimension)

		byChecksum, err := s.FindFileByChecksum(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, f.ID, byChecksum.ID)

		err = s.CreateFile(ctx, newFile("copy.csv", "abc"))
		assert.ErrorIs(t, err, ErrDuplicate)

		_, err = s.GetFile(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)

		files, err := s.ListFiles(ctx)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})
}

func TestReturnedValuesAreCopies(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		job, _ := createJob(t, s, "copies", "c1")

		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		got.Files[0].Thresholds[0] = 100

		again, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2}, again.Files[0].Thresholds)
	})
}

func TestLabelMatrices(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		unnamed := newLabels("")
		require.NoError(t, s.CreateLabelMatrix(ctx, unnamed))
		assert.Equal(t, defaultLabelName(unnamed.ID), unnamed.Name)

		stored, err := s.GetLabelMatrix(ctx, unnamed.ID)
		require.NoError(t, err)
		assert.Equal(t, unnamed.Cells, stored.Cells)
		assert.Equal(t, "2x3", stored.Dimension())
		assert.Equal(t, "B_02", stored.Cell(1, 1))

		equivalent, err := s.FindEquivalentLabelMatrix(ctx, newLabels("other name"))
		require.NoError(t, err)
		assert.Equal(t, unnamed.ID, equivalent.ID)

		different := newLabels("plate map")
		different.Cells[0] = "control"
		_, err = s.FindEquivalentLabelMatrix(ctx, different)
		assert.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, s.CreateLabelMatrix(ctx, different))

		square := &LabelMatrix{Rows: []string{"A"}, Cols: []string{"1"}, Cells: []string{"x"}}
		require.NoError(t, s.CreateLabelMatrix(ctx, square))

		sized, err := s.ListLabelMatrices(ctx, LabelFilter{Dimension: "2x3"})
		require.NoError(t, err)
		assert.Len(t, sized, 2)

		all, err := s.ListLabelMatrices(ctx, LabelFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

func TestDeleteLabelMatrix(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, used := createJob(t, s, "", "d1")
		assert.ErrorIs(t, s.DeleteLabelMatrix(ctx, used.ID), ErrInUse)

		kept := newLabels("kept")
		kept.KeepWhenUnused = true
		require.NoError(t, s.CreateLabelMatrix(ctx, kept))
		assert.ErrorIs(t, s.DeleteLabelMatrix(ctx, kept.ID), ErrInUse)

		free := newLabels("free")
		require.NoError(t, s.CreateLabelMatrix(ctx, free))
		require.NoError(t, s.DeleteLabelMatrix(ctx, free.ID))
		_, err := s.GetLabelMatrix(ctx, free.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, s.DeleteLabelMatrix(ctx, 999), ErrNotFound)
	})
}

func TestJobs(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		job, labels := createJob(t, s, "", "j1", "j2")
		assert.Equal(t, defaultJobName(job.ID), job.Name)

		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, labels.ID, got.LabelMatrixID)
		require.Len(t, got.Files, 2)
		assert.Equal(t, "j1.csv", got.Files[0].OriginalName)
		assert.Equal(t, []float64{1, 2}, got.Files[1].Thresholds)

		require.NoError(t, s.UpdateJobThresholds(ctx, job.ID, got.Files[1].FileID, []float64{0, 3.5}))
		got, err = s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 3.5}, got.Files[1].Thresholds)

		assert.ErrorIs(t, s.UpdateJobThresholds(ctx, job.ID, 999, nil), ErrNotFound)
		assert.ErrorIs(t, s.UpdateJobThresholds(ctx, 999, got.Files[0].FileID, nil), ErrNotFound)

		createJob(t, s, "second", "j3")
		jobs, err := s.ListJobs(ctx)
		require.NoError(t, err)
		require.Len(t, jobs, 2)
		assert.Equal(t, "second", jobs[1].Name)
	})
}

func TestCreateJobRejectsMissingReferences(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		err := s.CreateJob(ctx, &Job{LabelMatrixID: 999})
		assert.ErrorIs(t, err, ErrNotFound)

		labels := newLabels("")
		require.NoError(t, s.CreateLabelMatrix(ctx, labels))
		err = s.CreateJob(ctx, &Job{LabelMatrixID: labels.ID, Files: []JobFile{{FileID: 999}}})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteJobRemovesUnreferenced(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		first, firstLabels := createJob(t, s, "first", "shared", "own")
		second, _ := createJob(t, s, "second", "shared")

		require.NoError(t, s.DeleteJob(ctx, first.ID))

		_, err := s.GetJob(ctx, first.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.FindFileByChecksum(ctx, "own")
		assert.ErrorIs(t, err, ErrNotFound, "file only used by the deleted job is removed")
		_, err = s.FindFileByChecksum(ctx, "shared")
		assert.NoError(t, err, "file still used by another job is kept")
		_, err = s.GetLabelMatrix(ctx, firstLabels.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.GetJob(ctx, second.ID)
		assert.NoError(t, err)
		assert.ErrorIs(t, s.DeleteJob(ctx, first.ID), ErrNotFound)
	})
}

func TestDeleteJobKeepsProtectedLabels(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		f := newFile("k.csv", "k")
		require.NoError(t, s.CreateFile(ctx, f))
		labels := newLabels("keep me")
		labels.KeepWhenUnused = true
		require.NoError(t, s.CreateLabelMatrix(ctx, labels))
		job := &Job{Dimension: "2x3", LabelMatrixID: labels.ID, Files: []JobFile{{FileID: f.ID}}}
		require.NoError(t, s.CreateJob(ctx, job))

		require.NoError(t, s.DeleteJob(ctx, job.ID))
		_, err := s.GetLabelMatrix(ctx, labels.ID)
		assert.NoError(t, err)
	})
}

func TestIDsArePerEntity(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		job, labels := createJob(t, s, "", "k1", "k2")
		assert.Equal(t, int64(1), labels.ID)
		assert.Equal(t, int64(1), job.ID)
		assert.Equal(t, "job-1", job.Name)
		assert.Equal(t, []int64{1, 2}, []int64{job.Files[0].FileID, job.Files[1].FileID})
	})
}

func TestShortThresholdsKeepTheirLength(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		job, _ := createJob(t, s, "short", "s1")

		require.NoError(t, s.UpdateJobThresholds(ctx, job.ID, job.Files[0].FileID, []float64{1}))
		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, []float64{1}, got.Files[0].Thresholds)
	})
}
