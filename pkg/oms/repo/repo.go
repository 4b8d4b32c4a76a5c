package repo

import (
	"github.com/joripage/matching-engine/pkg/oms/model"
	"gorm.io/gorm"
)

type IRepo interface {
	OrderEvent() IOrderEvent
	Trade() ITrade
}

type Repo struct {
	omsDB *gorm.DB
}

func NewRepo(omsDB *gorm.DB) IRepo {
	return &Repo{
		omsDB: omsDB,
	}
}

func (r *Repo) OrderEvent() IOrderEvent {
	return NewOrderEventSQLRepo(r.omsDB)
}

func (r *Repo) Trade() ITrade {
	return NewTradeSQLRepo(r.omsDB)
}

// AutoMigrate creates the audit tables from the models. Production schemas
// come from migration/sql; this is for embedded and test databases.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.OrderEvent{}, &model.TradeEvent{})
}
