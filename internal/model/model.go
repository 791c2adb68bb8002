package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/pkg/db"
	"github.com/thep200/ecommerce-api/pkg/log"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

type Model struct {
	Config    *cfg.Config `gorm:"-" json:"-"`
	Logger    log.Logger  `gorm:"-" json:"-"`
	Mysql     *db.Mysql   `gorm:"-" json:"-"`
	ID        uint        `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func (m *Model) conn(ctx context.Context) (*gorm.DB, error) {
	if m.Mysql == nil {
		return nil, errors.New("model has no database handle")
	}
	db, err := m.Mysql.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	return db, nil
}

// notFound maps gorm's sentinel to ErrNotFound so callers need not import gorm.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// All tables, in migration order.
func Tables() []interface{} {
	return []interface{}{&User{}, &Category{}, &Product{}}
}
