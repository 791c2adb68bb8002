package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/thep200/ecommerce-api/cfg"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Mysql struct {
	Config    *cfg.Config
	once      sync.Once
	db        *gorm.DB
	initErr   error
	dialector gorm.Dialector
}

func NewMysql(config *cfg.Config) (*Mysql, error) {
	return &Mysql{
		Config: config,
	}, nil
}

// NewMysqlWithDialector opens the pool through another gorm dialector
// (sqlite in tests) while keeping the same handle type.
func NewMysqlWithDialector(config *cfg.Config, dialector gorm.Dialector) (*Mysql, error) {
	if dialector == nil {
		return nil, fmt.Errorf("dialector is required")
	}
	return &Mysql{
		Config:    config,
		dialector: dialector,
	}, nil
}

func (m *Mysql) DSN() string {
	config := mysqlDriver.Config{
		User:                 m.Config.Mysql.Username,
		Passwd:               m.Config.Mysql.Password,
		DBName:               m.Config.Mysql.Database,
		Addr:                 m.Config.Mysql.Host + ":" + m.Config.Mysql.Port,
		Net:                  "tcp",
		ParseTime:            true,
		AllowNativePasswords: true,
		Loc:                  time.UTC,
		Params:               map[string]string{"charset": "utf8mb4"},
	}
	return config.FormatDSN()
}

func (m *Mysql) Db() (*gorm.DB, error) {
	m.once.Do(func() {
		dialector := m.dialector
		if dialector == nil {
			dialector = mysql.Open(m.DSN())
		}

		// Open connection
		var db *gorm.DB
		db, m.initErr = gorm.Open(dialector, &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if m.initErr != nil {
			return
		}

		// Get sqlDB
		var sqlDB *sql.DB
		sqlDB, m.initErr = db.DB()
		if m.initErr != nil {
			return
		}

		// Setting connection pool
		if m.Config.Mysql.MaxIdleConnection > 0 {
			sqlDB.SetMaxIdleConns(m.Config.Mysql.MaxIdleConnection)
		}
		if m.Config.Mysql.MaxOpenConnection > 0 {
			sqlDB.SetMaxOpenConns(m.Config.Mysql.MaxOpenConnection)
		}
		sqlDB.SetConnMaxLifetime(time.Duration(m.Config.Mysql.MaxLifeTimeConnection) * time.Second)

		m.db = db
	})
	return m.db, m.initErr
}

// Conn returns the pool bound to ctx.
func (m *Mysql) Conn(ctx context.Context) (*gorm.DB, error) {
	db, err := m.Db()
	if err != nil {
		return nil, err
	}
	return db.WithContext(ctx), nil
}

func (m *Mysql) Ping(ctx context.Context) error {
	db, err := m.Db()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (m *Mysql) Close() error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

func (m *Mysql) Migrate(models ...interface{}) error {
	db, err := m.Db()
	if err != nil {
		return err
	}
	return db.AutoMigrate(models...)
}
