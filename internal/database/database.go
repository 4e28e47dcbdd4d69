package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/meehighlov/reventor/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultSQLitePath is used when neither DATABASE_URL nor DATABASE_PATH is set.
const DefaultSQLitePath = "reventor.db"

var DB *gorm.DB

// InitDB initializes the database connection
func InitDB() error {
	var dialector gorm.Dialector

	// A DATABASE_URL selects Postgres; otherwise fall back to a local
	// SQLite file, which is the default deployment.
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		dialector = postgres.Open(dsn)
	} else {
		path := os.Getenv("DATABASE_PATH")
		if path == "" {
			path = DefaultSQLitePath
		}
		dialector = sqlite.Open(path)
	}

	// Create base logger
	baseLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags|log.Lshortfile),
		logger.Config{
			SlowThreshold:             time.Second, // Log queries slower than 1 second
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	// Filter the due-event scan so the ticker does not flood the query log
	customLogger := NewFilteredLogger(
		baseLogger,
		"due_at <=",
	)

	gormConfig := &gorm.Config{
		Logger:      customLogger,
		PrepareStmt: true,
	}

	// Open connection with retry logic
	var err error
	maxRetries := 5
	retryDelay := time.Second * 5

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(dialector, gormConfig)
		if err == nil {
			break
		}
		log.Printf("Database connection attempt %d failed: %v", i+1, err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := DB.AutoMigrate(
		&models.User{},
		&models.Event{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Println("Database connection established and migrations completed")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
