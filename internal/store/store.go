package store

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Store is the run catalog.
type Store interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Run() Run
	InitialMigration() error
	Close() error
}

type DataStore struct {
	db  *gorm.DB
	run Run
	log logrus.FieldLogger
}

func NewStore(db *gorm.DB) Store {
	log := logrus.New().WithField("component", "store")
	return &DataStore{
		run: NewRunStore(db, log),
		db:  db,
		log: log,
	}
}

func (s *DataStore) Run() Run {
	return s.run
}

func (s *DataStore) InitialMigration() error {
	return s.run.InitialMigration()
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
