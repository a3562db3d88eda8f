// Package filex creates the directories and files the CLI writes exports to.
package filex

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnsureSubdDir creates dirName below the working directory, or dirName
// itself when it is absolute, and returns its absolute path.
func EnsureSubdDir(dirName string) (string, error) {
	dir := dirName
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dirName)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// ExportName builds a file name such as "cover-letter-20261015-093000.html".
func ExportName(title string, now time.Time, ext string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(title), "-"))
	return fmt.Sprintf("%s-%s%s", slug, now.Format("20060102-150405"), ext)
}

// WriteNew creates dir/name, failing if it already exists, and fills it with
// write. A partially written file is removed.
func WriteNew(dir, name string, write func(io.Writer) error) (string, error) {
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	werr := write(f)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
