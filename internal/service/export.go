package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/geovolt/geophygis/internal/batch"
	"github.com/geovolt/geophygis/internal/extract"
	"github.com/geovolt/geophygis/internal/instrument"
	"github.com/geovolt/geophygis/internal/inversion"
	"github.com/geovolt/geophygis/internal/profile"
	"github.com/geovolt/geophygis/internal/store"
	"github.com/geovolt/geophygis/internal/store/model"
	"github.com/geovolt/geophygis/internal/topo"
	"github.com/geovolt/geophygis/pkg/metrics"
	"github.com/geovolt/geophygis/pkg/survey"
	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

const (
	scratchSuffix = ".attab"
	topoLogSuffix = ".top"
)

type ExportRequest struct {
	// ParentDir holds the {ID}.dat source files and receives the run workspace.
	ParentDir string
	Features  []*geojson.Feature
	// Sink receives every input feature unchanged.
	Sink extract.FeatureSink
	// Window is the requested smoothing window, 0 disables smoothing.
	Window        int
	ParameterPath string
	Invert        bool
}

type ExportService struct {
	store         store.Store
	extractor     *extract.Extractor
	inversionTool string
	clock         func() time.Time
}

// NewExportService builds the export direction. st may be nil when no run catalog is
// configured; inversionTool may be empty when inversion is never requested.
func NewExportService(st store.Store, opts extract.Options, inversionTool string) *ExportService {
	return &ExportService{
		store:         st,
		extractor:     extract.NewExtractor(opts),
		inversionTool: inversionTool,
		clock:         time.Now,
	}
}

func (s *ExportService) WithClock(clock func() time.Time) *ExportService {
	s.clock = clock
	return s
}

// Export turns sampled profile points into topography data files and batch
// descriptors inside a new workspace directory. Missing or malformed source files are
// reported in the summary and skipped; everything else that fails ends the run.
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (*Summary, error) {
	log := zap.S().Named("export")
	started := s.clock()

	if err := checkParentDir(req.ParentDir); err != nil {
		return nil, err
	}
	if req.Invert && s.inversionTool == "" {
		return nil, fmt.Errorf("inversion requested but no inversion tool is configured")
	}
	workspace, err := createWorkspace(req.ParentDir, started)
	if err != nil {
		return nil, err
	}
	name := RunName(req.ParentDir)
	summary := &Summary{RunID: uuid.New(), Direction: metrics.Export, Workspace: workspace}
	log.Infof("run %s: exporting %d features to %s", summary.RunID, len(req.Features), workspace)

	profiles, err := s.collect(ctx, req, filepath.Join(workspace, name+scratchSuffix), summary)
	if err != nil {
		return summary, err
	}
	summary.Profiles = len(profiles)

	written, err := s.writeProfiles(ctx, req, profiles, filepath.Join(workspace, name+topoLogSuffix), workspace, summary)
	if err != nil {
		return summary, err
	}

	jobs, err := batch.Generate(written, req.ParameterPath, workspace, name)
	if err != nil {
		return summary, err
	}
	summary.Batches = len(jobs)
	metrics.IncreaseBatchesTotalMetric(len(jobs))
	for _, j := range jobs {
		summary.Outputs = append(summary.Outputs, j.Path)
	}

	if req.Invert && len(jobs) > 0 {
		for _, r := range inversion.NewRunner(s.inversionTool).Run(ctx, jobs) {
			if r.Err != nil {
				summary.InversionFailures++
			}
		}
	}

	finished := s.clock()
	metrics.ObserveRunDuration(metrics.Export, finished.Sub(started))
	s.record(ctx, req, summary, written, started, finished)
	log.Infof("run %s: wrote %d of %d profiles, %d batch files", summary.RunID, len(written), len(profiles), len(jobs))
	return summary, nil
}

// collect runs the extractor into the scratch table and reads it back as profiles.
func (s *ExportService) collect(ctx context.Context, req ExportRequest, scratchPath string, summary *Summary) ([]survey.Profile, error) {
	scratch, err := os.Create(scratchPath)
	if err != nil {
		return nil, fmt.Errorf("creating scratch table: %w", err)
	}
	stats, err := s.extractor.Run(ctx, req.Features, req.Sink, scratch)
	summary.Features = stats.Features
	metrics.IncreaseFeaturesTotalMetric(metrics.Export, stats.Features)
	if cerr := scratch.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing scratch table: %w", cerr)
	}
	if err != nil {
		return nil, err
	}

	f, err := os.Open(scratchPath)
	if err != nil {
		return nil, fmt.Errorf("reopening scratch table: %w", err)
	}
	defer f.Close()
	records, err := profile.ReadScratch(f)
	if err != nil {
		return nil, err
	}
	return profile.Group(records), nil
}

func (s *ExportService) writeProfiles(ctx context.Context, req ExportRequest, profiles []survey.Profile, topoLogPath, workspace string, summary *Summary) ([]string, error) {
	log := zap.S().Named("export")

	topoLog, err := os.Create(topoLogPath)
	if err != nil {
		return nil, fmt.Errorf("creating topography log: %w", err)
	}
	defer topoLog.Close()
	writer := topo.NewWriter(req.ParentDir, workspace, topoLog)

	var written []string
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		src, err := writer.SourcePath(p.ID)
		if err != nil {
			s.fail(summary, p.ID, err)
			continue
		}
		if _, err := instrument.ParseArrayFile(src); err != nil {
			s.fail(summary, p.ID, err)
			continue
		}

		smoothed, window := profile.SmoothProfile(p, req.Window)
		if window.Clamped {
			log.Infof("profile %s: window %d reduced to %d for %d points", p.ID, window.Requested, window.Effective, len(p.Records))
			summary.Adjusted = append(summary.Adjusted, WindowAdjustment{ProfileID: p.ID, Window: window})
			metrics.IncreaseWindowAdjustmentsMetric()
		}

		path, err := writer.Write(smoothed)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				s.fail(summary, p.ID, err)
				continue
			}
			return written, err
		}
		written = append(written, path)
		summary.Outputs = append(summary.Outputs, path)
		metrics.IncreaseProfilesTotalMetric(metrics.Export, metrics.ProfileWritten)
	}
	return written, nil
}

func (s *ExportService) fail(summary *Summary, profileID string, err error) {
	perr := NewProfileError(profileID, err)
	summary.addError(perr)
	status := metrics.ProfileNotFound
	if perr.Kind == ParseError {
		status = metrics.ProfileParseError
	}
	metrics.IncreaseProfilesTotalMetric(metrics.Export, status)
	zap.S().Named("export").Warnw("skipping profile", "profile", profileID, "kind", perr.Kind.String(), "error", err)
}

func (s *ExportService) record(ctx context.Context, req ExportRequest, summary *Summary, written []string, started, finished time.Time) {
	if s.store == nil {
		return
	}
	byID := map[string]*model.Profile{}
	var order []string
	for _, path := range written {
		id := topo.ProfileID(path)
		p := model.NewWrittenProfile(summary.RunID, id)
		byID[id] = &p
		order = append(order, id)
	}
	run := model.NewRun(summary.RunID, metrics.Export, req.ParentDir, summary.Workspace, started)
	record(ctx, s.store, run, profileRecords(summary.RunID, byID, order, summary.Errors), finished)
}
