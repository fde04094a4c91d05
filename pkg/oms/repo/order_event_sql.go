package repo

import (
	"context"

	"github.com/joripage/lightengine/pkg/oms/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 500

type OrderEventSQLRepo struct {
	db *gorm.DB
}

func NewOrderEventSQLRepo(db *gorm.DB) *OrderEventSQLRepo {
	return &OrderEventSQLRepo{
		db: db,
	}
}

func (r *OrderEventSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// ignoreDuplicates makes redelivered events a no-op.
func ignoreDuplicates() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}
}

func (r *OrderEventSQLRepo) Create(ctx context.Context, record *model.OrderEvent) (*model.OrderEvent, error) {
	return record, r.dbWithContext(ctx).Clauses(ignoreDuplicates()).Create(record).Error
}

func (r *OrderEventSQLRepo) BulkCreate(ctx context.Context, records []*model.OrderEvent) ([]*model.OrderEvent, error) {
	if len(records) == 0 {
		return records, nil
	}
	return records, r.dbWithContext(ctx).Clauses(ignoreDuplicates()).CreateInBatches(records, insertBatchSize).Error
}

func (r *OrderEventSQLRepo) ListByOrder(ctx context.Context, instrument string, orderID uint64) ([]*model.OrderEvent, error) {
	var out []*model.OrderEvent
	err := r.dbWithContext(ctx).
		Where("instrument = ? AND order_id = ?", instrument, orderID).
		Order("exec_id").
		Find(&out).Error
	return out, err
}
