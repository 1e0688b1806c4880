package store

import (
	"context"
	"errors"
	"time"

	"github.com/geovolt/geophygis/internal/store/model"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Run interface {
	Create(ctx context.Context, run model.Run) (*model.Run, error)
	AddProfiles(ctx context.Context, runID uuid.UUID, profiles []model.Profile) error
	Finish(ctx context.Context, runID uuid.UUID, at time.Time) error
	Get(ctx context.Context, id uuid.UUID) (*model.Run, error)
	List(ctx context.Context, filter *RunQueryFilter, opts *RunQueryOptions) (model.RunList, error)
	Delete(ctx context.Context, id uuid.UUID) error
	InitialMigration() error
}

type RunStore struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// Make sure we conform to Run interface
var _ Run = (*RunStore)(nil)

func NewRunStore(db *gorm.DB, log logrus.FieldLogger) Run {
	return &RunStore{db: db, log: log}
}

func (s *RunStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.Run{}, &model.Profile{})
}

func (s *RunStore) Create(ctx context.Context, run model.Run) (*model.Run, error) {
	if err := s.getDB(ctx).WithContext(ctx).Omit(clause.Associations).Create(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// AddProfiles records profile outcomes of a run. A profile recorded twice keeps the
// latest outcome.
func (s *RunStore) AddProfiles(ctx context.Context, runID uuid.UUID, profiles []model.Profile) error {
	if len(profiles) == 0 {
		return nil
	}
	for i := range profiles {
		profiles[i].RunID = runID
	}
	return s.getDB(ctx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "run_id"}, {Name: "profile_id"}},
		UpdateAll: true,
	}).Create(&profiles).Error
}

func (s *RunStore) Finish(ctx context.Context, runID uuid.UUID, at time.Time) error {
	result := s.getDB(ctx).WithContext(ctx).Model(&model.Run{}).Where("id = ?", runID).Update("finished_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *RunStore) Get(ctx context.Context, id uuid.UUID) (*model.Run, error) {
	var run model.Run
	result := s.getDB(ctx).WithContext(ctx).Preload("Profiles", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("profile_id")
	}).First(&run, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &run, nil
}

func (s *RunStore) List(ctx context.Context, filter *RunQueryFilter, opts *RunQueryOptions) (model.RunList, error) {
	var runs model.RunList
	tx := s.getDB(ctx).WithContext(ctx).Model(&runs).Preload("Profiles")
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}
	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}
	if err := tx.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *RunStore) Delete(ctx context.Context, id uuid.UUID) error {
	db := s.getDB(ctx).WithContext(ctx)
	if err := db.Where("run_id = ?", id).Delete(&model.Profile{}).Error; err != nil {
		return err
	}
	result := db.Delete(&model.Run{}, "id = ?", id)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		s.log.Infof("ERROR: %v", result.Error)
		return result.Error
	}
	return nil
}

func (s *RunStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
