package service

import (
	"context"
	"time"

	"github.com/geovolt/geophygis/internal/store"
	"github.com/geovolt/geophygis/internal/store/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// record stores a finished run in the catalog. Catalog failures are logged and never
// fail the run whose outputs are already on disk.
func record(ctx context.Context, st store.Store, run model.Run, profiles []model.Profile, finishedAt time.Time) {
	if st == nil {
		return
	}
	log := zap.S().Named("store")

	err := st.WithTransaction(ctx, func(ctx context.Context) error {
		return persist(ctx, st, run, profiles, finishedAt)
	})
	if err != nil {
		log.Warnw("failed to record run", "run", run.ID, "error", err)
		return
	}
	log.Debugf("recorded run %s with %d profiles", run.ID, len(profiles))
}

func persist(ctx context.Context, st store.Store, run model.Run, profiles []model.Profile, finishedAt time.Time) error {
	if _, err := st.Run().Create(ctx, run); err != nil {
		return err
	}
	if err := st.Run().AddProfiles(ctx, run.ID, profiles); err != nil {
		return err
	}
	return st.Run().Finish(ctx, run.ID, finishedAt)
}

// profileRecords merges the errors of a run into its profile records, in first seen
// order. A record that already exists keeps its metadata and takes the status of its
// first error.
func profileRecords(runID uuid.UUID, byID map[string]*model.Profile, order []string, errs []*ProfileError) []model.Profile {
	for _, e := range errs {
		status := model.StatusNotFound
		if e.Kind == ParseError {
			status = model.StatusParseError
		}
		p, ok := byID[e.ProfileID]
		if !ok {
			np := model.NewFailedProfile(runID, e.ProfileID, status, e.Err.Error())
			byID[e.ProfileID] = &np
			order = append(order, e.ProfileID)
			continue
		}
		if p.Status == model.StatusOK {
			p.Status = status
			p.Message = e.Err.Error()
		}
	}
	out := make([]model.Profile, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}
