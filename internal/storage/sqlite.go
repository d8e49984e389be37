package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by a SQLite database
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens the database at dsn and migrates it to the latest schema.
func OpenSQLite(dsn string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	// One connection keeps ":memory:" databases and pragmas consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", dsn, err)
	}

	s := &SQLiteStore{db: db, logger: logger.With(slog.String("component", "sqlite_store"))}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Info("sqlite store ready", slog.String("dsn", dsn))
	return s, nil
}

func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

type scanner interface {
	Scan(dest ...any) error
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
	}
	return err
}

const fileColumns = `id, original_name, checksum, size, row_count, dimension, substances, data, created_at`

func scanFile(row scanner) (*File, error) {
	var (
		f          File
		substances string
		created    int64
	)
	if err := row.Scan(&f.ID, &f.OriginalName, &f.Checksum, &f.Size, &f.RowCount,
		&f.Dimension, &substances, &f.Data, &created); err != nil {
		return nil, err
	}
	f.Substances = SplitLabels(substances)
	f.CreatedAt = fromMillis(created)
	return &f, nil
}

// CreateFile stores a new file
func (s *SQLiteStore) CreateFile(ctx context.Context, f *File) error {
	if _, err := s.FindFileByChecksum(ctx, f.Checksum); err == nil {
		return fmt.Errorf("file %s: %w", f.Checksum, ErrDuplicate)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if f.CreatedAt.IsZero() {
		f.CreatedAt = now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO files (original_name, checksum, size, row_count, dimension, substances, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.OriginalName, f.Checksum, f.Size, f.RowCount, f.Dimension,
		JoinLabels(f.Substances), f.Data, f.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	f.ID, err = res.LastInsertId()
	return err
}

// GetFile retrieves a file by ID
func (s *SQLiteStore) GetFile(ctx context.Context, id int64) (*File, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	f, err := scanFile(row)
	if err != nil {
		return nil, notFound(err, "file %d", id)
	}
	return f, nil
}

// FindFileByChecksum returns the file with the given checksum
func (s *SQLiteStore) FindFileByChecksum(ctx context.Context, checksum string) (*File, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE checksum = ?`, checksum)
	f, err := scanFile(row)
	if err != nil {
		return nil, notFound(err, "file with checksum %s", checksum)
	}
	return f, nil
}

// ListFiles returns all files ordered by ID
func (s *SQLiteStore) ListFiles(ctx context.Context) ([]*File, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM files ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	result := []*File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

const labelColumns = `id, name, rows, cols, cells, public, keep_when_unused, created_at`

func scanLabelMatrix(row scanner) (*LabelMatrix, error) {
	var (
		l                 LabelMatrix
		rows, cols, cells string
		created           int64
	)
	if err := row.Scan(&l.ID, &l.Name, &rows, &cols, &cells, &l.Public, &l.KeepWhenUnused, &created); err != nil {
		return nil, err
	}
	l.Rows = SplitLabels(rows)
	l.Cols = SplitLabels(cols)
	l.Cells = SplitLabels(cells)
	l.CreatedAt = fromMillis(created)
	return &l, nil
}

// CreateLabelMatrix stores a new label matrix
func (s *SQLiteStore) CreateLabelMatrix(ctx context.Context, l *LabelMatrix) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO label_matrices (name, row_count, col_count, rows, cols, cells, public, keep_when_unused, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Name, len(l.Rows), len(l.Cols), JoinLabels(l.Rows), JoinLabels(l.Cols), JoinLabels(l.Cells),
		l.Public, l.KeepWhenUnused, l.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert label matrix: %w", err)
	}
	if l.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	if l.Name == "" {
		l.Name = defaultLabelName(l.ID)
		if _, err := tx.ExecContext(ctx, `UPDATE label_matrices SET name = ? WHERE id = ?`, l.Name, l.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetLabelMatrix retrieves a label matrix by ID
func (s *SQLiteStore) GetLabelMatrix(ctx context.Context, id int64) (*LabelMatrix, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+labelColumns+` FROM label_matrices WHERE id = ?`, id)
	l, err := scanLabelMatrix(row)
	if err != nil {
		return nil, notFound(err, "label matrix %d", id)
	}
	return l, nil
}

// FindEquivalentLabelMatrix returns the oldest label matrix with the same labels as l
func (s *SQLiteStore) FindEquivalentLabelMatrix(ctx context.Context, l *LabelMatrix) (*LabelMatrix, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+labelColumns+` FROM label_matrices
		 WHERE row_count = ? AND col_count = ? AND rows = ? AND cols = ? AND cells = ?
		 ORDER BY id LIMIT 1`,
		len(l.Rows), len(l.Cols), JoinLabels(l.Rows), JoinLabels(l.Cols), JoinLabels(l.Cells))
	found, err := scanLabelMatrix(row)
	if err != nil {
		return nil, notFound(err, "equivalent label matrix")
	}
	return found, nil
}

// ListLabelMatrices returns label matrices matching the filter
func (s *SQLiteStore) ListLabelMatrices(ctx context.Context, filter LabelFilter) ([]*LabelMatrix, error) {
	query := `SELECT ` + labelColumns + ` FROM label_matrices`
	var args []any
	if filter.Dimension != "" {
		var r, c int
		if _, err := fmt.Sscanf(filter.Dimension, "%dx%d", &r, &c); err != nil {
			return nil, fmt.Errorf("invalid dimension %q: %w", filter.Dimension, err)
		}
		query += ` WHERE row_count = ? AND col_count = ?`
		args = append(args, r, c)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list label matrices: %w", err)
	}
	defer rows.Close()

	var result []*LabelMatrix
	for rows.Next() {
		l, err := scanLabelMatrix(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// DeleteLabelMatrix removes an unused label matrix
func (s *SQLiteStore) DeleteLabelMatrix(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var keep, refs int
	err = tx.QueryRowContext(ctx,
		`SELECT keep_when_unused, (SELECT COUNT(*) FROM jobs WHERE label_matrix_id = l.id)
		 FROM label_matrices l WHERE id = ?`, id).Scan(&keep, &refs)
	if err != nil {
		return notFound(err, "label matrix %d", id)
	}
	if keep != 0 || refs > 0 {
		return fmt.Errorf("label matrix %d: %w", id, ErrInUse)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM label_matrices WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete label matrix %d: %w", id, err)
	}
	return tx.Commit()
}

// CreateJob stores a new job. The label matrix and all files must exist.
func (s *SQLiteStore) CreateJob(ctx context.Context, j *Job) error {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := exists(ctx, tx, `SELECT 1 FROM label_matrices WHERE id = ?`, j.LabelMatrixID); err != nil {
		return notFound(err, "label matrix %d", j.LabelMatrixID)
	}
	seen := make(map[int64]bool, len(j.Files))
	for _, f := range j.Files {
		if err := exists(ctx, tx, `SELECT 1 FROM files WHERE id = ?`, f.FileID); err != nil {
			return notFound(err, "file %d", f.FileID)
		}
		if seen[f.FileID] {
			return fmt.Errorf("file %d listed twice: %w", f.FileID, ErrDuplicate)
		}
		seen[f.FileID] = true
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO jobs (name, dimension, label_matrix_id, created_at) VALUES (?, ?, ?, ?)`,
		j.Name, j.Dimension, j.LabelMatrixID, j.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	if j.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	if j.Name == "" {
		j.Name = defaultJobName(j.ID)
		if _, err := tx.ExecContext(ctx, `UPDATE jobs SET name = ? WHERE id = ?`, j.Name, j.ID); err != nil {
			return err
		}
	}

	for pos, f := range j.Files {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO job_files (job_id, file_id, position, original_name, thresholds) VALUES (?, ?, ?, ?, ?)`,
			j.ID, f.FileID, pos, f.OriginalName, FormatThresholds(f.Thresholds)); err != nil {
			return fmt.Errorf("insert job file %d: %w", f.FileID, err)
		}
	}
	return tx.Commit()
}

func exists(ctx context.Context, tx *sql.Tx, query string, id int64) error {
	var one int
	return tx.QueryRowContext(ctx, query, id).Scan(&one)
}

// GetJob retrieves a job by ID
func (s *SQLiteStore) GetJob(ctx context.Context, id int64) (*Job, error) {
	var (
		j       Job
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, dimension, label_matrix_id, created_at FROM jobs WHERE id = ?`, id).
		Scan(&j.ID, &j.Name, &j.Dimension, &j.LabelMatrixID, &created)
	if err != nil {
		return nil, notFound(err, "job %d", id)
	}
	j.CreatedAt = fromMillis(created)

	if j.Files, err = s.jobFiles(ctx, j.ID); err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *SQLiteStore) jobFiles(ctx context.Context, jobID int64) ([]JobFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_id, original_name, thresholds FROM job_files WHERE job_id = ? ORDER BY position`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list files of job %d: %w", jobID, err)
	}
	defer rows.Close()

	files := []JobFile{}
	for rows.Next() {
		var (
			f          JobFile
			thresholds string
		)
		if err := rows.Scan(&f.FileID, &f.OriginalName, &thresholds); err != nil {
			return nil, err
		}
		if f.Thresholds, err = ParseThresholds(thresholds); err != nil {
			return nil, fmt.Errorf("job %d file %d: %w", jobID, f.FileID, err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// ListJobs returns all jobs ordered by ID
func (s *SQLiteStore) ListJobs(ctx context.Context) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM jobs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The single connection must be free before loading each job.
	result := make([]*Job, 0, len(ids))
	for _, id := range ids {
		j, err := s.GetJob(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, j)
	}
	return result, nil
}

// UpdateJobThresholds replaces the thresholds of one file in a job
func (s *SQLiteStore) UpdateJobThresholds(ctx context.Context, jobID, fileID int64, thresholds []float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE job_files SET thresholds = ? WHERE job_id = ? AND file_id = ?`,
		FormatThresholds(thresholds), jobID, fileID)
	if err != nil {
		return fmt.Errorf("update thresholds: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("file %d in job %d: %w", fileID, jobID, ErrNotFound)
	}
	return nil
}

// DeleteJob removes a job together with files and label matrix nothing else uses
func (s *SQLiteStore) DeleteJob(ctx context.Context, id int64) error {
	j, err := s.GetJob(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete job %d: %w", id, err)
	}
	for _, f := range j.Files {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM files WHERE id = ? AND NOT EXISTS (SELECT 1 FROM job_files WHERE file_id = ?)`,
			f.FileID, f.FileID); err != nil {
			return fmt.Errorf("delete file %d: %w", f.FileID, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM label_matrices
		 WHERE id = ? AND keep_when_unused = 0 AND NOT EXISTS (SELECT 1 FROM jobs WHERE label_matrix_id = ?)`,
		j.LabelMatrixID, j.LabelMatrixID); err != nil {
		return fmt.Errorf("delete label matrix %d: %w", j.LabelMatrixID, err)
	}
	return tx.Commit()
}

var _ Store = (*SQLiteStore)(nil)
