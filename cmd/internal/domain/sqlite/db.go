package sqlite

import (
	"os"
	"time"

	"telefonia/cmd/internal/domain/entity"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func Init() (*gorm.DB, error) {
	path := os.Getenv("DATABASE_PATH")
	if path == "" {
		path = "./database.db"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&entity.User{}, &entity.Appointment{}, &entity.Setting{})
	if err != nil {
		return nil, err
	}

	// A single connection keeps sqlite writers serialized, which the
	// transactional conflict-check-then-write in the appointment
	// repository relies on.
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
