package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/ecommerce-api/cfg"
	"gorm.io/driver/sqlite"
)

type note struct {
	ID   uint
	Text string
}

func TestMysql_DSN(t *testing.T) {
	config := &cfg.Config{Mysql: cfg.Mysql{
		Host:     "10.0.0.5",
		Port:     "3306",
		Username: "shop",
		Password: "secret",
		Database: "ecommerce",
	}}
	m, err := NewMysql(config)
	require.NoError(t, err)

	dsn := m.DSN()
	assert.Contains(t, dsn, "shop:secret@tcp(10.0.0.5:3306)/ecommerce")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestMysql_WithDialector(t *testing.T) {
	config := &cfg.Config{Mysql: cfg.Mysql{MaxOpenConnection: 1, MaxIdleConnection: 1}}
	m, err := NewMysqlWithDialector(config, sqlite.Open("file::memory:"))
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Migrate(&note{}))
	require.NoError(t, m.Ping(context.Background()))

	conn, err := m.Conn(context.Background())
	require.NoError(t, err)
	require.NoError(t, conn.Create(&note{Text: "hello"}).Error)

	var got note
	require.NoError(t, conn.First(&got).Error)
	assert.Equal(t, "hello", got.Text)

	// the pool is opened once
	first, _ := m.Db()
	second, _ := m.Db()
	assert.Same(t, first, second)
}

func TestNewMysqlWithDialector_Nil(t *testing.T) {
	_, err := NewMysqlWithDialector(&cfg.Config{}, nil)
	assert.Error(t, err)
}
