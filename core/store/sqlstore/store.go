// Package sqlstore is the GORM-backed primary store.
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"press-pass/core/pass"

	"gorm.io/gorm"
)

// Store implements store.Primary over a press_passes table.
type Store struct {
	db *gorm.DB
}

// New creates a Store on db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the press_passes table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Row{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", TableName, err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, rec pass.Record) (pass.Record, error) {
	row := fromRecord(rec)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return pass.Record{}, fmt.Errorf("failed to insert pass %s: %w", rec.ID, err)
	}
	return row.record(), nil
}

func (s *Store) Get(ctx context.Context, id string) (pass.Record, error) {
	var row Row
	err := s.db.WithContext(ctx).Where("pass_number = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pass.Record{}, pass.ErrNotFound
	}
	if err != nil {
		return pass.Record{}, fmt.Errorf("failed to get pass %s: %w", id, err)
	}
	return row.record(), nil
}

func (s *Store) List(ctx context.Context, q pass.Query) ([]pass.Record, error) {
	tx := s.db.WithContext(ctx).Model(&Row{})
	if q.Email != "" {
		tx = tx.Where("email = ?", q.Email)
	}
	if q.Organization != "" {
		tx = tx.Where("organization = ?", q.Organization)
	}

	// SortColumn only yields whitelisted column names.
	order := q.SortColumn() + " DESC"
	if q.Ascending {
		order = q.SortColumn() + " ASC"
	}
	tx = tx.Order(order)
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []Row
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list passes: %w", err)
	}
	recs := make([]pass.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.record())
	}
	return recs, nil
}

func (s *Store) Update(ctx context.Context, id string, p pass.Patch) (pass.Record, error) {
	cols := p.Columns()
	if len(cols) == 0 {
		return s.Get(ctx, id)
	}
	res := s.db.WithContext(ctx).Model(&Row{}).Where("pass_number = ?", id).Updates(cols)
	if res.Error != nil {
		return pass.Record{}, fmt.Errorf("failed to update pass %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return pass.Record{}, pass.ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("pass_number = ?", id).Delete(&Row{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete pass %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return pass.ErrNotFound
	}
	return nil
}
