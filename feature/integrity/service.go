package integrity

import (
	"context"
	"errors"

	"press-pass/core/database"
	"press-pass/core/reconcile"
	"press-pass/core/store/sqlstore"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNoSchema is returned by CheckSchema when the primary is not SQL backed.
var ErrNoSchema = errors.New("primary store has no SQL schema")

// SchemaCheck returns the expected columns missing from the primary table.
type SchemaCheck func(ctx context.Context) ([]string, error)

// SQLSchemaCheck checks the press_passes table of db.
func SQLSchemaCheck(db *gorm.DB) SchemaCheck {
	return func(ctx context.Context) ([]string, error) {
		return database.MissingColumns(db.WithContext(ctx), sqlstore.TableName, sqlstore.Columns)
	}
}

// Service runs consistency checks over the stores.
type Service struct {
	engine *reconcile.Engine
	schema SchemaCheck
	logger *zap.Logger
}

// NewService creates a Service. schema may be nil.
func NewService(engine *reconcile.Engine, schema SchemaCheck, logger *zap.Logger) *Service {
	return &Service{engine: engine, schema: schema, logger: logger}
}

// CheckMirrors compares both stores from fresh indices. With purge set the
// fallback copies matching the primary are removed and the count is
// returned; mismatched copies go too only with includeMismatched.
func (s *Service) CheckMirrors(ctx context.Context, purge, includeMismatched bool) (*reconcile.ReconcilePlan, int, error) {
	s.engine.Invalidate()
	return s.engine.ReconcileAndApply(ctx, reconcile.ReconcileOptions{
		DoPurge:           purge,
		IncludeMismatched: includeMismatched,
		Confirmed:         purge,
	})
}

// CheckPass reports where one pass is stored and how its copies differ.
func (s *Service) CheckPass(ctx context.Context, id string) (*reconcile.ReconcileResult, error) {
	return s.engine.ReconcileOne(ctx, id)
}

// CheckSchema returns the missing primary columns.
func (s *Service) CheckSchema(ctx context.Context) ([]string, error) {
	if s.schema == nil {
		return nil, ErrNoSchema
	}
	return s.schema(ctx)
}
