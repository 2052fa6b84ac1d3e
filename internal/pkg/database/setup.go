package database

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/internal/pkg/env"
	"github.com/voyageshield/voyageshield/internal/pkg/logger"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

// GetDB returns the shared connection opened by SetupDatabase.
func GetDB() *gorm.DB {
	return DB
}

// SetDB replaces the shared connection, e.g. with an in-memory database.
func SetDB(db *gorm.DB) {
	DB = db
}

// DSN builds the MySQL data source name from the environment.
func DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)
}

func SetupDatabase() error {
	var err error
	log := logger.L()

	cfg := &gorm.Config{}
	if !env.IsDev() {
		cfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       DSN(),
			DefaultStringSize:         256,
			SkipInitializeWithVersion: false,
		}), cfg)
		if err == nil {
			if err = AutoMigrate(DB); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			log.Infow("database connected", "host", env.GetEnv("DB_HOST", "127.0.0.1"), "name", env.GetEnv("DB_NAME", ""))
			return nil
		}

		log.Warnw("failed to connect to database", "attempt", i+1, "max", maxRetries, "error", err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	return err
}

// AutoMigrate brings the schema of every model up to date.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.InsurancePlan{},
		&models.Payment{},
		&models.InsurancePolicy{},
	)
}
