package database

import (
	"context"
	"fmt"
	"time"

	"github.com/dosreb/planlibrary/app/models"
	"github.com/dosreb/planlibrary/internal/pkg/env"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

// Config holds the MySQL connection settings
type Config struct {
	User         string
	Password     string
	Host         string
	Port         string
	Name         string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
	Debug        bool
}

func LoadConfig() Config {
	return Config{
		User:         env.GetEnv("DB_USER", ""),
		Password:     env.GetEnv("DB_PASSWORD", ""),
		Host:         env.GetEnv("DB_HOST", "127.0.0.1"),
		Port:         env.GetEnv("DB_PORT", "3306"),
		Name:         env.GetEnv("DB_NAME", ""),
		MaxOpenConns: env.GetEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns: env.GetEnvInt("DB_MAX_IDLE_CONNS", 10),
		AutoMigrate:  env.GetEnvBool("DB_AUTO_MIGRATE", true),
		Debug:        env.IsDev(),
	}
}

// DSN builds the go-sql-driver DSN
func (c Config) DSN() string {
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

// SetupDatabase connects with retries and stores the handle in DB. It panics
// when the database stays unreachable.
func SetupDatabase(cfg Config) {
	var err error

	logLevel := logger.Warn
	if cfg.Debug {
		logLevel = logger.Info
	}

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       cfg.DSN(), // data source name
			DefaultStringSize:         256,       // default size for string fields
			DisableDatetimePrecision:  true,      // disable datetime precision, which not supported before MySQL 5.6
			DontSupportRenameIndex:    true,      // drop & create when rename index, rename index not supported before MySQL 5.7, MariaDB
			DontSupportRenameColumn:   true,      // `change` when rename column, rename column not supported before MySQL 8, MariaDB
			SkipInitializeWithVersion: false,     // auto configure based on currently MySQL version
		}), &gorm.Config{
			Logger: logger.Default.LogMode(logLevel),
		})
		if err == nil {
			if sqlDB, dbErr := DB.DB(); dbErr == nil {
				sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
				sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
				sqlDB.SetConnMaxLifetime(time.Hour)
			}
			if cfg.AutoMigrate {
				if err = AutoMigrate(DB); err != nil {
					log.Errorf("[Database] AutoMigrate failed: %v", err)
					panic(err)
				}
			}
			log.Infof("[Database] Connected to %s:%s/%s", cfg.Host, cfg.Port, cfg.Name)
			return
		}

		log.Warnf("[Database] Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Infof("[Database] Retry in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// AutoMigrate creates or updates the plan library tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.PlanCategory{},
		&models.Plan{},
		&models.PlanTag{},
		&models.ProjectPlan{},
		&models.PlanFavorite{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// Ping checks that the pooled connection is usable.
func Ping(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// MigrationURL is the golang-migrate database URL for cfg
func (c Config) MigrationURL() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		c.User, c.Password, c.Host, c.Port, c.Name)
}
