package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"telefonia/cmd/internal/domain/entity"
	"telefonia/cmd/internal/domain/sqlite/repository"
	"telefonia/cmd/internal/token"
	"telefonia/cmd/internal/utils"
	"telefonia/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

const (
	settingHoursBeforeChanges = "hours_before_changes"
	defaultHoursBeforeChanges = 2
	defaultPageLimit          = 10
)

type AppointmentRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Appointment, error)
	Insert(ctx context.Context, appt *entity.Appointment) error
	Reschedule(ctx context.Context, id string, at int64, comment string) error
	Deactivate(ctx context.Context, id string) error
	FindPageAll(ctx context.Context, skip, limit int) ([]*repository.OwnedAppointment, error)
	FindPageByUser(ctx context.Context, userID string, skip, limit int) ([]*repository.OwnedAppointment, error)
	FindByIDWithOwner(ctx context.Context, id string) (*repository.OwnedAppointment, error)
	CountActive(ctx context.Context) (int64, error)
	CountActiveByUser(ctx context.Context, userID string) (int64, error)
}

type SettingRepository interface {
	IntValue(ctx context.Context, key string) (int, bool, error)
}

type AppointmentRequest struct {
	UserID          string `json:"user_id"`
	DateAppointment string `json:"date_appointment" validate:"required,iso8601"`
	Comment         string `json:"comment" validate:"max=280"`
}

type AppointmentResponse struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	DateAppointment string `json:"date_appointment"`
	DateCreation    string `json:"date_creation"`
	Comment         string `json:"comment"`
	Active          bool   `json:"active"`
}

// EnrichedAppointment is the read-side projection joined with the owner's
// display name.
type EnrichedAppointment struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	UserName        string `json:"user_name"`
	DateAppointment string `json:"date_appointment"`
	DateCreation    string `json:"date_creation"`
	Comment         string `json:"comment"`
	Active          bool   `json:"active"`
}

type AppointmentListResponse struct {
	Appointments []*EnrichedAppointment `json:"appointments"`
	Total        int64                  `json:"total"`
	Skip         int                    `json:"skip"`
	Limit        int                    `json:"limit"`
}

type DefaultAppointmentService struct {
	AppointmentRepo AppointmentRepository
	UserRepo        UserRepository
	SettingRepo     SettingRepository
	Validate        *validator.Validate

	now func() int64
}

func NewAppointmentService(apptRepo AppointmentRepository, userRepo UserRepository, settingRepo SettingRepository, validate *validator.Validate) *DefaultAppointmentService {
	return &DefaultAppointmentService{
		AppointmentRepo: apptRepo,
		UserRepo:        userRepo,
		SettingRepo:     settingRepo,
		Validate:        validate,
		now:             utils.NowUTC,
	}
}

// CreateAppointment books a slot for the requester, or for another user
// when the requester is an administrator. The conflict check and the
// insert are atomic in the repository.
func (a *DefaultAppointmentService) CreateAppointment(ctx context.Context, req *AppointmentRequest, claims *token.Claims) (*AppointmentResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := a.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	at, err := utils.FromEpoch(req.DateAppointment)
	if err != nil {
		return nil, apierror.MalformedBodyError
	}

	if !utils.InBusinessHours(at) {
		return nil, apierror.InvalidTimeWindowError
	}

	caller, err := a.UserRepo.FindByEmail(ctx, claims.Email())
	if err != nil {
		log.Errorf("failed to fetch user %s: %v", claims.Email(), err)
		return nil, apierror.InternalServerError
	}
	if caller == nil {
		return nil, apierror.UserNotFoundError
	}

	ownerID, apierr := a.resolveOwner(ctx, req.UserID, caller)
	if apierr != nil {
		return nil, apierr
	}

	appt := &entity.Appointment{
		UserID:          ownerID,
		DateAppointment: at,
		DateCreation:    a.now(),
		Comment:         req.Comment,
		Active:          true,
	}

	err = a.AppointmentRepo.Insert(ctx, appt)
	if errors.Is(err, repository.ErrSlotTaken) {
		return nil, apierror.SlotTakenError
	}
	if err != nil {
		log.Errorf("failed to save appointment: %v", err)
		return nil, apierror.InternalServerError
	}
	return toAppointmentResponse(appt), nil
}

// GetAppointments lists appointments scoped by role: administrators see
// every active appointment of active users, everyone else only their own.
func (a *DefaultAppointmentService) GetAppointments(ctx context.Context, claims *token.Claims, skip, limit int) (*AppointmentListResponse, apierror.ErrorResponse) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}

	if claims.Admin {
		rows, err := a.AppointmentRepo.FindPageAll(ctx, skip, limit)
		if err != nil {
			log.Errorf("failed to list appointments: %v", err)
			return nil, apierror.InternalServerError
		}
		total, err := a.AppointmentRepo.CountActive(ctx)
		if err != nil {
			log.Errorf("failed to count appointments: %v", err)
			return nil, apierror.InternalServerError
		}
		return toListResponse(rows, total, skip, limit), nil
	}

	caller, err := a.UserRepo.FindByEmail(ctx, claims.Email())
	if err != nil {
		log.Errorf("failed to fetch user %s: %v", claims.Email(), err)
		return nil, apierror.InternalServerError
	}
	if caller == nil {
		// No local profile: return an empty page rather than disclosing
		// whether the account exists.
		return toListResponse(nil, 0, skip, limit), nil
	}

	rows, err := a.AppointmentRepo.FindPageByUser(ctx, caller.ID, skip, limit)
	if err != nil {
		log.Errorf("failed to list appointments for user %s: %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}
	total, err := a.AppointmentRepo.CountActiveByUser(ctx, caller.ID)
	if err != nil {
		log.Errorf("failed to count appointments for user %s: %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}
	return toListResponse(rows, total, skip, limit), nil
}

// GetAppointment returns one appointment enriched with the owner's
// display name. Malformed and unknown ids both read as not found.
func (a *DefaultAppointmentService) GetAppointment(ctx context.Context, id string) (*EnrichedAppointment, apierror.ErrorResponse) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apierror.NotFoundError
	}

	row, err := a.AppointmentRepo.FindByIDWithOwner(ctx, id)
	if err != nil {
		log.Errorf("failed to fetch appointment %s: %v", id, err)
		return nil, apierror.InternalServerError
	}
	if row == nil {
		return nil, apierror.NotFoundError
	}
	return toEnriched(row), nil
}

// UpdateAppointment moves an appointment and/or rewrites its comment. The
// lead-time rule is checked against the currently stored time; the new
// time is checked for business hours and conflicts (excluding the record
// itself).
func (a *DefaultAppointmentService) UpdateAppointment(ctx context.Context, id string, req *AppointmentRequest, claims *token.Claims) (*AppointmentResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := a.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	existing, apierr := a.authorizedMutation(ctx, id, claims)
	if apierr != nil {
		return nil, apierr
	}

	at, err := utils.FromEpoch(req.DateAppointment)
	if err != nil {
		return nil, apierror.MalformedBodyError
	}
	if !utils.InBusinessHours(at) {
		return nil, apierror.InvalidTimeWindowError
	}

	if at == existing.DateAppointment && req.Comment == existing.Comment {
		return nil, apierror.NoChangeError
	}

	err = a.AppointmentRepo.Reschedule(ctx, id, at, req.Comment)
	if errors.Is(err, repository.ErrSlotTaken) {
		return nil, apierror.SlotTakenError
	}
	if err != nil {
		log.Errorf("failed to update appointment %s: %v", id, err)
		return nil, apierror.InternalServerError
	}

	existing.DateAppointment = at
	existing.Comment = req.Comment
	return toAppointmentResponse(existing), nil
}

// DisableAppointment soft-cancels an appointment. Cancelling one that is
// already inactive reports NoChange; the record stays cancelled.
func (a *DefaultAppointmentService) DisableAppointment(ctx context.Context, id string, claims *token.Claims) apierror.ErrorResponse {
	existing, apierr := a.authorizedCancellation(ctx, id, claims)
	if apierr != nil {
		return apierr
	}

	err := a.AppointmentRepo.Deactivate(ctx, existing.ID)
	if err != nil {
		log.Errorf("failed to disable appointment %s: %v", id, err)
		return apierror.InternalServerError
	}
	return nil
}

// resolveOwner decides which user the appointment belongs to. Admins must
// name an existing target; everyone else may only book for themselves.
func (a *DefaultAppointmentService) resolveOwner(ctx context.Context, requestedID string, caller *entity.User) (string, apierror.ErrorResponse) {
	if !caller.Admin {
		if requestedID != "" && requestedID != caller.ID {
			return "", apierror.ForbiddenError
		}
		return caller.ID, nil
	}

	if requestedID == "" {
		return "", apierror.MissingTargetError
	}
	if _, err := uuid.Parse(requestedID); err != nil {
		return "", apierror.InvalidIdFormatError
	}

	target, err := a.UserRepo.FindByID(ctx, requestedID)
	if err != nil {
		log.Errorf("failed to fetch target user %s: %v", requestedID, err)
		return "", apierror.InternalServerError
	}
	if target == nil {
		return "", apierror.UserNotFoundError
	}
	return target.ID, nil
}

// authorizedMutation runs the shared update/cancel precondition chain: id
// well-formed, record present, caller is owner or admin, and the stored
// appointment time is still far enough away.
func (a *DefaultAppointmentService) authorizedMutation(ctx context.Context, id string, claims *token.Claims) (*entity.Appointment, apierror.ErrorResponse) {
	existing, apierr := a.ownedBy(ctx, id, claims)
	if apierr != nil {
		return nil, apierr
	}

	ok, apierr := a.leadTimeOK(ctx, existing.DateAppointment)
	if apierr != nil {
		return nil, apierr
	}
	if !ok {
		return nil, apierror.TooLateToModifyError
	}
	return existing, nil
}

// authorizedCancellation is authorizedMutation with the already-cancelled
// check taken first, so cancelling twice stays idempotent even when the
// appointment is by now inside the lead-time window.
func (a *DefaultAppointmentService) authorizedCancellation(ctx context.Context, id string, claims *token.Claims) (*entity.Appointment, apierror.ErrorResponse) {
	existing, apierr := a.ownedBy(ctx, id, claims)
	if apierr != nil {
		return nil, apierr
	}

	if !existing.Active {
		return nil, apierror.NoChangeError
	}

	ok, apierr := a.leadTimeOK(ctx, existing.DateAppointment)
	if apierr != nil {
		return nil, apierr
	}
	if !ok {
		return nil, apierror.TooLateToModifyError
	}
	return existing, nil
}

func (a *DefaultAppointmentService) ownedBy(ctx context.Context, id string, claims *token.Claims) (*entity.Appointment, apierror.ErrorResponse) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apierror.InvalidIdFormatError
	}

	existing, err := a.AppointmentRepo.FindByID(ctx, id)
	if err != nil {
		log.Errorf("failed to fetch appointment %s: %v", id, err)
		return nil, apierror.InternalServerError
	}
	if existing == nil {
		return nil, apierror.NotFoundError
	}

	caller, err := a.UserRepo.FindByEmail(ctx, claims.Email())
	if err != nil {
		log.Errorf("failed to fetch user %s: %v", claims.Email(), err)
		return nil, apierror.InternalServerError
	}
	if caller == nil || (existing.UserID != caller.ID && !caller.Admin) {
		return nil, apierror.ForbiddenError
	}
	return existing, nil
}

// leadTimeOK reports whether the stored appointment time is still more
// than the configured hours_before_changes setting away (default 2h when
// the setting row is missing).
func (a *DefaultAppointmentService) leadTimeOK(ctx context.Context, apptAt int64) (bool, apierror.ErrorResponse) {
	hours, found, err := a.SettingRepo.IntValue(ctx, settingHoursBeforeChanges)
	if err != nil {
		log.Errorf("failed to read setting %s: %v", settingHoursBeforeChanges, err)
		return false, apierror.InternalServerError
	}
	if !found {
		hours = defaultHoursBeforeChanges
	}

	lead := int64(hours) * time.Hour.Milliseconds()
	return apptAt-a.now() >= lead, nil
}

func displayName(name, lastname string) string {
	name = strings.TrimSpace(name)
	lastname = strings.TrimSpace(lastname)
	if lastname == "" {
		return name
	}
	if name == "" {
		return lastname
	}
	return name + " " + lastname
}

func toAppointmentResponse(appt *entity.Appointment) *AppointmentResponse {
	return &AppointmentResponse{
		ID:              appt.ID,
		UserID:          appt.UserID,
		DateAppointment: utils.FormatEpoch(appt.DateAppointment),
		DateCreation:    utils.FormatEpoch(appt.DateCreation),
		Comment:         appt.Comment,
		Active:          appt.Active,
	}
}

func toEnriched(row *repository.OwnedAppointment) *EnrichedAppointment {
	return &EnrichedAppointment{
		ID:              row.ID,
		UserID:          row.UserID,
		UserName:        displayName(row.OwnerName, row.OwnerLastname),
		DateAppointment: utils.FormatEpoch(row.DateAppointment),
		DateCreation:    utils.FormatEpoch(row.DateCreation),
		Comment:         row.Comment,
		Active:          row.Active,
	}
}

func toListResponse(rows []*repository.OwnedAppointment, total int64, skip, limit int) *AppointmentListResponse {
	appts := make([]*EnrichedAppointment, len(rows))
	for i, row := range rows {
		appts[i] = toEnriched(row)
	}
	return &AppointmentListResponse{Appointments: appts, Total: total, Skip: skip, Limit: limit}
}
