package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/geovolt/geophygis/internal/geometry"
	"github.com/geovolt/geophygis/internal/instrument"
	"github.com/geovolt/geophygis/internal/metadata"
	"github.com/geovolt/geophygis/internal/store"
	"github.com/geovolt/geophygis/internal/store/model"
	"github.com/geovolt/geophygis/pkg/metrics"
	"github.com/geovolt/geophygis/pkg/survey"
	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

const (
	dataSuffix   = ".dat"
	deviceSuffix = ".2dm"
)

type ImportRequest struct {
	// ParentDir holds the .dat data files, the optional .2dm device headers and
	// receives the metadata table and the documentation sheet.
	ParentDir string
	Lines     []*geojson.Feature
	// Sink receives the merged line features.
	Sink          metadata.FeatureSink
	DeviceHeaders bool
	Workbook      bool
}

type ImportService struct {
	store store.Store
	mode  geometry.Mode
	clock func() time.Time
}

// NewImportService builds the import direction. st may be nil when no run catalog is
// configured.
func NewImportService(st store.Store, mode geometry.Mode) *ImportService {
	return &ImportService{store: st, mode: mode, clock: time.Now}
}

func (s *ImportService) WithClock(clock func() time.Time) *ImportService {
	s.clock = clock
	return s
}

// Import reads the survey metadata of every data file in the parent directory, writes
// the metadata table and merges it onto the line features.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*Summary, error) {
	log := zap.S().Named("import")
	started := s.clock()

	if err := checkParentDir(req.ParentDir); err != nil {
		return nil, err
	}
	name, stamp := RunName(req.ParentDir), Stamp(started)
	summary := &Summary{RunID: uuid.New(), Direction: metrics.Import}

	records, err := s.readProfiles(ctx, req, summary)
	if err != nil {
		return summary, err
	}
	summary.Profiles = len(records)

	metaPath := filepath.Join(req.ParentDir, name+"_meta"+stamp+".csv")
	if err := writeFile(metaPath, func(f *os.File) error { return metadata.WriteCSV(f, records) }); err != nil {
		return summary, err
	}
	summary.Outputs = append(summary.Outputs, metaPath)

	table, err := readTable(metaPath)
	if err != nil {
		return summary, err
	}

	metrics.IncreaseFeaturesTotalMetric(metrics.Import, len(req.Lines))
	rows, stats, err := metadata.NewMerger(table, s.mode).Merge(ctx, req.Lines, req.Sink)
	summary.Features = stats.Lines
	summary.Unmatched = stats.Unmatched
	if err != nil {
		return summary, err
	}

	sheetPath := filepath.Join(req.ParentDir, name+"_docsheet_"+stamp+".csv")
	if err := writeFile(sheetPath, func(f *os.File) error { return metadata.WriteDocsheet(f, rows) }); err != nil {
		return summary, err
	}
	summary.Outputs = append(summary.Outputs, sheetPath)

	if req.Workbook {
		bookPath := strings.TrimSuffix(sheetPath, ".csv") + ".xlsx"
		if err := metadata.WriteWorkbook(bookPath, rows); err != nil {
			return summary, err
		}
		summary.Outputs = append(summary.Outputs, bookPath)
	}

	finished := s.clock()
	metrics.ObserveRunDuration(metrics.Import, finished.Sub(started))
	s.record(ctx, req, summary, records, started, finished)
	log.Infof("run %s: %d profiles, %d lines merged, %d without metadata", summary.RunID, len(records), stats.Lines, stats.Unmatched)
	return summary, nil
}

// readProfiles parses every data file of the parent directory in name order. Profile
// IDs are the upper cased file names; a second file mapping to the same ID is ignored.
func (s *ImportService) readProfiles(ctx context.Context, req ImportRequest, summary *Summary) ([]*survey.ProfileMetadata, error) {
	log := zap.S().Named("import")

	files, err := filepath.Glob(filepath.Join(req.ParentDir, "*"+dataSuffix))
	if err != nil {
		return nil, fmt.Errorf("listing data files: %w", err)
	}

	var records []*survey.ProfileMetadata
	seen := map[string]bool{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		id := strings.ToUpper(stem)
		if seen[id] {
			log.Warnf("ignoring %s: profile %s already read", path, id)
			continue
		}
		seen[id] = true

		header, err := instrument.ParseArrayFile(path)
		if err != nil {
			s.fail(summary, id, err)
			continue
		}

		var device *survey.DeviceHeader
		if req.DeviceHeaders {
			device, err = instrument.ParseDeviceHeaderFile(filepath.Join(req.ParentDir, stem+deviceSuffix))
			if err != nil {
				s.fail(summary, id, err)
				device = nil
			}
		}
		records = append(records, survey.NewProfileMetadata(id, *header, device))
		metrics.IncreaseProfilesTotalMetric(metrics.Import, metrics.ProfileWritten)
	}
	return records, nil
}

func (s *ImportService) fail(summary *Summary, profileID string, err error) {
	perr := NewProfileError(profileID, err)
	summary.addError(perr)
	status := metrics.ProfileNotFound
	if perr.Kind == ParseError {
		status = metrics.ProfileParseError
	}
	metrics.IncreaseProfilesTotalMetric(metrics.Import, status)
	zap.S().Named("import").Warnw("profile incomplete", "profile", profileID, "kind", perr.Kind.String(), "error", err)
}

func (s *ImportService) record(ctx context.Context, req ImportRequest, summary *Summary, records []*survey.ProfileMetadata, started, finished time.Time) {
	if s.store == nil {
		return
	}
	byID := map[string]*model.Profile{}
	var order []string
	for _, m := range records {
		p := model.NewProfileFromMetadata(summary.RunID, m)
		byID[m.ID] = &p
		order = append(order, m.ID)
	}
	run := model.NewRun(summary.RunID, metrics.Import, req.ParentDir, "", started)
	record(ctx, s.store, run, profileRecords(summary.RunID, byID, order, summary.Errors), finished)
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func readTable(path string) (*metadata.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reopening metadata table: %w", err)
	}
	defer f.Close()
	return metadata.ReadCSV(f)
}
