package knowledge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentDecodes bounds how many export files are decoded at once
const maxConcurrentDecodes = 4

// supportedExtensions maps file extensions to their document decoders
var supportedExtensions = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
	".xlsx": true,
}

// IsExportFile reports whether path has an export extension the loader reads
func IsExportFile(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Loader handles loading technique exports from the filesystem
type Loader struct {
	basePath string
	logger   *zap.Logger
}

// NewLoader creates a new loader rooted at basePath, which may be a single
// export file or a directory of exports. A nil logger disables logging.
func NewLoader(basePath string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{basePath: basePath, logger: logger}
}

// BasePath returns the file or directory the loader reads from
func (l *Loader) BasePath() string {
	return l.basePath
}

// LoadAll loads the records of every export under the base path. Files are
// decoded concurrently; records keep lexical file order, then document order.
func (l *Loader) LoadAll(ctx context.Context) ([]*Object, error) {
	start := time.Now()

	paths, err := l.exportFiles()
	if err != nil {
		return nil, err
	}

	perFile := make([][]*Object, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDecodes)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := l.LoadFile(path)
			if err != nil {
				return err
			}
			perFile[i] = records
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var records []*Object
	for _, recs := range perFile {
		records = append(records, recs...)
	}

	l.logger.Debug("loaded technique exports",
		zap.String("path", l.basePath),
		zap.Int("files", len(paths)),
		zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(start)))

	return records, nil
}

// exportFiles lists the export files under the base path in lexical order
func (l *Loader) exportFiles() ([]string, error) {
	info, err := os.Stat(l.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open data path: %w", err)
	}
	if !info.IsDir() {
		return []string{l.basePath}, nil
	}

	var paths []string
	err = filepath.Walk(l.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip directories and unsupported files
		if info.IsDir() {
			return nil
		}
		if !IsExportFile(path) {
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk data directory: %w", err)
	}

	return paths, nil
}

// LoadFile loads the records of a single export file
func (l *Loader) LoadFile(path string) ([]*Object, error) {
	// Validate path to prevent directory traversal attacks
	if err := l.validatePath(path); err != nil {
		return nil, err
	}

	doc, err := DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	records, err := LoadRecords(doc)
	if err != nil {
		var schemaErr *SchemaError
		if errors.As(err, &schemaErr) {
			schemaErr.Source = path
		}
		return nil, err
	}

	l.logger.Debug("loaded export file",
		zap.String("file", path),
		zap.Int("records", len(records)))

	return records, nil
}

// DecodeFile decodes an export file according to its extension. Unknown
// extensions are read as JSON.
func DecodeFile(path string) (Value, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return DecodeSpreadsheet(path)
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Value{}, fmt.Errorf("failed to read file: %w", err)
		}
		return DecodeYAML(data)
	}

	f, err := os.Open(path)
	if err != nil {
		return Value{}, fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()

	return DecodeJSON(bufio.NewReader(f))
}

// validatePath ensures the given path is within the loader's basePath
// and prevents directory traversal attacks, including through symlinks
func (l *Loader) validatePath(path string) error {
	cleanPath, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	cleanBase, err := resolvePath(l.basePath)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	relPath, err := filepath.Rel(cleanBase, cleanPath)
	if err != nil {
		return fmt.Errorf("failed to compute relative path: %w", err)
	}

	// If the relative path starts with "..", it's outside the base path
	if strings.HasPrefix(relPath, "..") || filepath.IsAbs(relPath) {
		return fmt.Errorf("path traversal detected: %s is outside base path %s", path, l.basePath)
	}

	return nil
}

// resolvePath returns the absolute form of path with symlinks evaluated
// along its longest existing prefix
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", err
	}

	dir, rest := abs, ""
	for {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(resolved, rest), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
}
