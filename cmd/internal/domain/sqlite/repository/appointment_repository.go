package repository

import (
	"context"
	"errors"
	"time"

	"telefonia/cmd/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrSlotTaken is returned when the ±30-minute window around the requested
// time already holds an active appointment. Services translate it into the
// client-facing conflict error.
var ErrSlotTaken = errors.New("slot already taken")

// Business policy: one professional, one implicit slot queue. Two active
// appointments may never be scheduled within 30 minutes of each other.
const conflictRadiusMillis = int64(30 * time.Minute / time.Millisecond)

// OwnedAppointment is an appointment row joined with its owner's profile
// name fields, produced by the read-side list/lookup queries.
type OwnedAppointment struct {
	ID              string
	UserID          string
	DateAppointment int64
	DateCreation    int64
	Comment         string
	Active          bool
	OwnerName       string
	OwnerLastname   string
}

type DefaultAppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *DefaultAppointmentRepository {
	return &DefaultAppointmentRepository{db: db}
}

func (a *DefaultAppointmentRepository) FindByID(ctx context.Context, id string) (*entity.Appointment, error) {
	var appt entity.Appointment
	err := a.db.WithContext(ctx).First(&appt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// countConflicts counts active appointments inside the half-open window
// [at-30m, at+30m). The half-open upper bound keeps two appointments
// exactly 30 minutes apart from blocking each other at the boundary.
func countConflicts(tx *gorm.DB, at int64, excludeID string) (int64, error) {
	q := tx.Model(&entity.Appointment{}).
		Where("active = ?", true).
		Where("date_appointment >= ?", at-conflictRadiusMillis).
		Where("date_appointment < ?", at+conflictRadiusMillis)

	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	err := q.Count(&count).Error
	return count, err
}

// Insert persists a new appointment. The conflict check and the insert run
// in one transaction so two concurrent creates for overlapping times
// cannot both pass the check before either commits.
func (a *DefaultAppointmentRepository) Insert(ctx context.Context, appt *entity.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := countConflicts(tx, appt.DateAppointment, "")
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrSlotTaken
		}
		return tx.Create(appt).Error
	})
}

// Reschedule moves an appointment to a new time and comment. The record is
// excluded from its own conflict window so an unchanged time does not
// conflict with itself. Check and write share a transaction, as in Insert.
func (a *DefaultAppointmentRepository) Reschedule(ctx context.Context, id string, at int64, comment string) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := countConflicts(tx, at, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrSlotTaken
		}

		return tx.Model(&entity.Appointment{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"date_appointment": at,
				"comment":          comment,
			}).Error
	})
}

// Deactivate soft-cancels an appointment. Rows are never deleted.
func (a *DefaultAppointmentRepository) Deactivate(ctx context.Context, id string) error {
	return a.db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ?", id).
		Update("active", false).Error
}

func (a *DefaultAppointmentRepository) FindPageAll(ctx context.Context, skip, limit int) ([]*OwnedAppointment, error) {
	var rows []*OwnedAppointment
	err := a.ownedQuery(ctx).
		Order("appointments.date_creation DESC").
		Offset(skip).
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (a *DefaultAppointmentRepository) FindPageByUser(ctx context.Context, userID string, skip, limit int) ([]*OwnedAppointment, error) {
	var rows []*OwnedAppointment
	err := a.ownedQuery(ctx).
		Where("appointments.user_id = ?", userID).
		Order("appointments.date_creation DESC").
		Offset(skip).
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// FindByIDWithOwner looks up a single appointment regardless of its
// active flag, so cancelled appointments stay visible to administrators.
// Only the owner has to be an active user.
func (a *DefaultAppointmentRepository) FindByIDWithOwner(ctx context.Context, id string) (*OwnedAppointment, error) {
	var rows []*OwnedAppointment
	err := a.ownedJoin(ctx).
		Where("appointments.id = ?", id).
		Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (a *DefaultAppointmentRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("active = ?", true).
		Count(&count).Error
	return count, err
}

func (a *DefaultAppointmentRepository) CountActiveByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("active = ?", true).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// ownedJoin joins appointments with their active owners; the
// application-level profile join the read side is built on.
func (a *DefaultAppointmentRepository) ownedJoin(ctx context.Context) *gorm.DB {
	return a.db.WithContext(ctx).Model(&entity.Appointment{}).
		Select("appointments.id, appointments.user_id, appointments.date_appointment, " +
			"appointments.date_creation, appointments.comment, appointments.active, " +
			"users.name AS owner_name, users.lastname AS owner_lastname").
		Joins("JOIN users ON users.id = appointments.user_id").
		Where("users.active = ?", true)
}

// ownedQuery is ownedJoin narrowed to active appointments, for the
// default listings.
func (a *DefaultAppointmentRepository) ownedQuery(ctx context.Context) *gorm.DB {
	return a.ownedJoin(ctx).Where("appointments.active = ?", true)
}
