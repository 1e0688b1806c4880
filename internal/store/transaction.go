package store

import (
	"context"

	"gorm.io/gorm"
)

type contextKey int

const (
	transactionKey contextKey = iota
)

// WithTransaction runs fn inside one catalog transaction. Store calls made with the
// context handed to fn join the transaction; it commits when fn returns nil and rolls
// back otherwise. A context already carrying a transaction is reused as is.
func (s *DataStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if FromContext(ctx) != nil {
		return fn(ctx)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, transactionKey, tx))
	})
	if err != nil {
		s.log.WithError(err).Debug("catalog transaction rolled back")
		return err
	}
	s.log.Debug("catalog transaction committed")
	return nil
}

// FromContext returns the transaction carried by ctx, or nil.
func FromContext(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(transactionKey).(*gorm.DB)
	return tx
}
