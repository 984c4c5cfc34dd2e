package entity

type User struct {
	ID            string `gorm:"primaryKey;size:36"`
	SubUUID       string `gorm:"not null;uniqueIndex"` // identity provider subject
	Name          string `gorm:"not null"`
	Lastname      string `gorm:"not null"`
	Email         string `gorm:"not null;uniqueIndex"`
	Phone         string `gorm:"not null"`
	EmailVerified bool   `gorm:"not null"`
	Active        bool   `gorm:"not null"`
	Admin         bool   `gorm:"not null"`
	CreatedAt     int64  `gorm:"not null"`
	UpdatedAt     int64  `gorm:"not null"`
}
