package persistence

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/backoffice/backend/internal/infrastructure/config"
)

func TestNewDatabase_Sqlite(t *testing.T) {
	db, err := NewDatabase(&config.DatabaseConfig{
		Driver:          "sqlite",
		Path:            ":memory:",
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 5,
	}, nil)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping())
}

func TestDialectorFor(t *testing.T) {
	sqliteCfg := &config.DatabaseConfig{Driver: "sqlite", Path: "ledger.db"}
	_, ok := dialectorFor(sqliteCfg).(*sqlite.Dialector)
	assert.True(t, ok, "sqlite driver should select the sqlite dialector")

	pgCfg := &config.DatabaseConfig{Driver: "postgres", Host: "localhost"}
	_, ok = dialectorFor(pgCfg).(*postgres.Dialector)
	assert.True(t, ok, "anything else should select postgres")
}

func TestDatabase_Ping(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	// gorm.Open pings once on its own, then db.Ping consumes the second.
	mock.ExpectPing()
	mock.ExpectPing()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	db := &Database{DB: gormDB}
	require.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	mock.ExpectClose()

	db := &Database{DB: gormDB}
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
