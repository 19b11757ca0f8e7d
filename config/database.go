package config

import (
	"fmt"
	"log"
	"os"

	"github.com/photocard-archive/api-go/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// gormConfig is shared by the server and the test database. References
// between records are plain id columns; the services own their cleanup.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

func databaseDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	dbHost := os.Getenv("DB_HOST")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbPort := os.Getenv("DB_PORT")

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		dbHost, dbUser, dbPassword, dbName, dbPort)
}

func InitDB() *gorm.DB {
	db, err := gorm.Open(postgres.Open(databaseDSN()), gormConfig())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	return db
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Photocard{},
		&models.Report{},
		&models.Verification{},
		&models.Sequence{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// One pending verification per original photocard.
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_verifications_pending_original
		ON verifications (original_photocard_id) WHERE status = 'pending'`).Error
	if err != nil {
		return fmt.Errorf("create pending verification index: %w", err)
	}

	return nil
}
