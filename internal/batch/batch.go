// Package batch writes the batch descriptors consumed by the inversion tool.
//
// Data files are split, in the order they were produced, into descriptors of at most
// survey.MaxBatchEntries entries. Every entry references the same inversion parameter file.
package batch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/geovolt/geophygis/pkg/survey"
	"go.uber.org/zap"
)

const (
	Suffix          = ".bth"
	inversionSuffix = ".inv"
	headerLabel     = "INVERSION PARAMETERS FILES USED"
)

// Plan splits data files into batch jobs without touching the filesystem.
// Job paths are {dir}/{name}_{index}.bth with 1-based indices.
func Plan(dataFiles []string, parameterPath, dir, name string) []survey.BatchJob {
	var jobs []survey.BatchJob
	for start := 0; start < len(dataFiles); start += survey.MaxBatchEntries {
		end := min(start+survey.MaxBatchEntries, len(dataFiles))
		index := len(jobs) + 1
		job := survey.BatchJob{
			Index:   index,
			Path:    filepath.Join(dir, fmt.Sprintf("%s_%d%s", name, index, Suffix)),
			Entries: make([]survey.BatchEntry, 0, end-start),
		}
		for _, f := range dataFiles[start:end] {
			job.Entries = append(job.Entries, survey.BatchEntry{
				DataPath:      f,
				InversionPath: InversionPath(f),
				ParameterPath: parameterPath,
			})
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// InversionPath derives the inversion result path of a data file by replacing its
// extension with .inv.
func InversionPath(dataPath string) string {
	return strings.TrimSuffix(dataPath, filepath.Ext(dataPath)) + inversionSuffix
}

// Render returns the descriptor file content of a job.
func Render(job survey.BatchJob) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%d\n", len(job.Entries))
	b.WriteString(headerLabel + "\n")
	for i, e := range job.Entries {
		fmt.Fprintf(&b, "DATA FILE %d\n", i+1)
		b.WriteString(e.DataPath + "\n")
		b.WriteString(e.InversionPath + "\n")
		b.WriteString(e.ParameterPath + "\n")
	}
	return b.Bytes()
}

// Generate plans and writes the batch descriptors for dataFiles. Nothing is written
// when parameterPath is empty or there are no data files.
func Generate(dataFiles []string, parameterPath, dir, name string) ([]survey.BatchJob, error) {
	if parameterPath == "" || len(dataFiles) == 0 {
		return nil, nil
	}
	jobs := Plan(dataFiles, parameterPath, dir, name)
	for _, job := range jobs {
		if err := os.WriteFile(job.Path, Render(job), 0644); err != nil {
			return nil, fmt.Errorf("writing batch file %d: %w", job.Index, err)
		}
		zap.S().Named("batch").Infof("wrote %s with %d entries", job.Path, len(job.Entries))
	}
	return jobs, nil
}
