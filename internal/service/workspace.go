package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const workspacePrefix = "TOPO_"

// Stamp renders the run time as "(ddmm_HHMMSS)".
func Stamp(t time.Time) string {
	return "(" + t.Format("0201_150405") + ")"
}

// RunName is the name every run file is derived from: the base name of the parent
// directory.
func RunName(parentDir string) string {
	return filepath.Base(filepath.Clean(parentDir))
}

func checkParentDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return NewErrInvalidParentDir(dir, err)
	}
	if !fi.IsDir() {
		return NewErrInvalidParentDir(dir, fmt.Errorf("not a directory"))
	}
	return nil
}

// createWorkspace creates the per-run output directory {parent}/TOPO_{stamp}.
func createWorkspace(parentDir string, at time.Time) (string, error) {
	dir := filepath.Join(parentDir, workspacePrefix+Stamp(at))
	if err := os.Mkdir(dir, 0755); err != nil {
		return "", fmt.Errorf("creating workspace: %w", err)
	}
	return dir, nil
}
