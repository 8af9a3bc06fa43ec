package utils

import (
	"errors"
	"os"
	"path/filepath"
)

const ROOT_MARKER = "config.yaml"

// GetRootPath walks up from the working directory looking for config.yaml.
func GetRootPath() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ROOT_MARKER)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	commonPaths := []string{
		"/app",
		"./",
		"../",
	}

	for _, path := range commonPaths {
		if _, err := os.Stat(filepath.Join(path, ROOT_MARKER)); err == nil {
			return filepath.Abs(path)
		}
	}

	return "", errors.New("could not find project root directory (config.yaml not found while traversing up the directory tree)")
}

// ResolvePath anchors a relative path at the project root, or at the working
// directory when no root is found.
func ResolvePath(path string) string {
	path = filepath.Clean(path)
	if filepath.IsAbs(path) {
		return path
	}

	rootPath, err := GetRootPath()
	if err != nil {
		if wd, wdErr := os.Getwd(); wdErr == nil {
			rootPath = wd
		} else {
			rootPath = "."
		}
	}
	return filepath.Join(rootPath, path)
}

// MkdirIfNotExists creates the directory of a file path, or the path itself
// when it has no extension.
func MkdirIfNotExists(path string) error {
	if path == "" {
		return errors.New("path cannot be empty")
	}

	path = ResolvePath(path)
	if filepath.Ext(path) != "" {
		path = filepath.Dir(path)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0755)
	}
	return nil
}
