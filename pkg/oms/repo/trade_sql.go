package repo

import (
	"context"

	"github.com/joripage/matching-engine/pkg/oms/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TradeSQLRepo struct {
	db *gorm.DB
}

func NewTradeSQLRepo(db *gorm.DB) *TradeSQLRepo {
	return &TradeSQLRepo{
		db: db,
	}
}

func (r *TradeSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *TradeSQLRepo) BulkCreate(ctx context.Context, records []*model.TradeEvent) ([]*model.TradeEvent, error) {
	if len(records) == 0 {
		return records, nil
	}
	return records, r.dbWithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(records).Error
}

// ListBySymbol returns trades in execution order; limit <= 0 means all.
func (r *TradeSQLRepo) ListBySymbol(ctx context.Context, symbol string, limit int) ([]*model.TradeEvent, error) {
	q := r.dbWithContext(ctx).Where("symbol = ?", symbol).Order("seq ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*model.TradeEvent
	return out, q.Find(&out).Error
}
