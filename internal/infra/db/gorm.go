package db

import (
	"time"

	"datesshop/internal/config"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config, log zerolog.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if !cfg.IsProd() && cfg.LogLevel == "debug" {
		level = gormlogger.Info
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		// unique違反をgorm.ErrDuplicatedKeyで受け取る
		TranslateError: true,
		Logger: gormlogger.New(zerologWriter{log: log}, gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return gdb, nil
}

// gormのログをzerologへ流す
type zerologWriter struct {
	log zerolog.Logger
}

func (w zerologWriter) Printf(format string, args ...interface{}) {
	w.log.Info().Str("component", "gorm").Msgf(format, args...)
}
