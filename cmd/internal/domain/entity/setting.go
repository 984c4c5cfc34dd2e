package entity

// Setting is a numeric business configuration value, e.g. the
// "hours_before_changes" lead time for appointment mutations.
type Setting struct {
	ID          int    `gorm:"primaryKey"`
	Key         string `gorm:"not null;uniqueIndex"`
	Value       int    `gorm:"not null"`
	Description string
}
