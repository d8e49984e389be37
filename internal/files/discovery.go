package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
	logger   *slog.Logger
}

// NewDiscovery creates a new file discovery instance. Relative paths are
// resolved against basePath.
func NewDiscovery(basePath string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{basePath: basePath, logger: logger}
}

func (d *Discovery) resolve(path string) string {
	if filepath.IsAbs(path) || d.basePath == "" {
		return path
	}
	return filepath.Join(d.basePath, path)
}

// IsExport reports whether name looks like a plate export. Spreadsheet lock
// files such as "~$plate.csv" are skipped.
func IsExport(name string) bool {
	base := filepath.Base(name)
	return strings.EqualFold(filepath.Ext(base), ".csv") && !strings.HasPrefix(base, "~$")
}

// FindCSVFiles finds all CSV exports directly inside dir, sorted by name.
func (d *Discovery) FindCSVFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var found []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsExport(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			d.logger.Warn("Skipping unreadable file",
				slog.String("file", entry.Name()),
				slog.String("error", err.Error()))
			continue
		}
		found = append(found, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	slices.SortFunc(found, func(a, b FileInfo) int { return strings.Compare(a.Name, b.Name) })

	d.logger.Debug("CSV files found",
		slog.String("directory", fullPath),
		slog.Int("count", len(found)))
	return found, nil
}

// Expand resolves paths into exports. Files are kept in argument order,
// directories are replaced by their CSV files. A directory without any CSV
// file is an error.
func (d *Discovery) Expand(paths []string) ([]FileInfo, error) {
	var out []FileInfo
	for _, p := range paths {
		full := d.resolve(p)
		info, err := os.Stat(full)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, FileInfo{
				Path:    full,
				Name:    filepath.Base(full),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
			continue
		}
		found, err := d.FindCSVFiles(p)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no CSV files in %s", full)
		}
		out = append(out, found...)
	}
	return out, nil
}

// Paths returns the path of every file.
func Paths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}
