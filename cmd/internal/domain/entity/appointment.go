package entity

type Appointment struct {
	ID              string `gorm:"primaryKey;size:36"`
	UserID          string `gorm:"not null;size:36;index"` // References: users(id)
	DateAppointment int64  `gorm:"not null;index"`
	DateCreation    int64  `gorm:"not null"`
	Comment         string
	Active          bool `gorm:"not null"`

	// Relations
	Owner User `gorm:"foreignKey:UserID;references:ID"`
}
