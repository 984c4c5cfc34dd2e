package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"telefonia/cmd/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&entity.User{}, &entity.Appointment{}, &entity.Setting{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	// One connection so the in-memory database is shared across queries.
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name, lastname string, active bool) string {
	t.Helper()
	user := &entity.User{
		ID:       uuid.NewString(),
		SubUUID:  uuid.NewString(),
		Name:     name,
		Lastname: lastname,
		Email:    uuid.NewString() + "@example.com",
		Phone:    "9999-8888",
		Active:   active,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user.ID
}

func at(t *testing.T, when string) int64 {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, when)
	if err != nil {
		t.Fatalf("bad time %q: %v", when, err)
	}
	return parsed.UnixMilli()
}

func insert(t *testing.T, repo *DefaultAppointmentRepository, userID string, when string, active bool) *entity.Appointment {
	t.Helper()
	appt := &entity.Appointment{
		UserID:          userID,
		DateAppointment: at(t, when),
		DateCreation:    time.Now().UTC().UnixMilli(),
		Active:          active,
	}
	if err := repo.Insert(context.Background(), appt); err != nil {
		t.Fatalf("insert at %s: %v", when, err)
	}
	return appt
}

func TestInsertAssignsID(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)
	userID := seedUser(t, db, "Maria", "Lopez", true)

	appt := insert(t, repo, userID, "2025-03-10T10:00:00Z", true)
	if _, err := uuid.Parse(appt.ID); err != nil {
		t.Errorf("id %q is not a uuid: %v", appt.ID, err)
	}
}

func TestInsertConflictWindow(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)
	userID := seedUser(t, db, "Maria", "Lopez", true)
	ctx := context.Background()

	insert(t, repo, userID, "2025-03-10T10:00:00Z", true)

	// 15 minutes later: inside the radius.
	err := repo.Insert(ctx, &entity.Appointment{
		UserID:          userID,
		DateAppointment: at(t, "2025-03-10T10:15:00Z"),
		Active:          true,
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Errorf("overlap insert: got %v, want ErrSlotTaken", err)
	}

	// Exactly 30 minutes earlier: the half-open window [t-30m, t+30m)
	// excludes the existing appointment.
	insert(t, repo, userID, "2025-03-10T09:30:00Z", true)

	// One hour later: clear of both.
	insert(t, repo, userID, "2025-03-10T11:00:00Z", true)
}

func TestInactiveAppointmentsDoNotConflict(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)
	userID := seedUser(t, db, "Maria", "Lopez", true)

	cancelled := insert(t, repo, userID, "2025-03-10T10:00:00Z", true)
	if err := repo.Deactivate(context.Background(), cancelled.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	insert(t, repo, userID, "2025-03-10T10:00:00Z", true)
}

func TestRescheduleExcludesSelf(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)
	userID := seedUser(t, db, "Maria", "Lopez", true)
	ctx := context.Background()

	appt := insert(t, repo, userID, "2025-03-10T10:00:00Z", true)
	other := insert(t, repo, userID, "2025-03-10T14:00:00Z", true)

	// Keeping its own time must not read as a conflict.
	if err := repo.Reschedule(ctx, appt.ID, appt.DateAppointment, "new comment"); err != nil {
		t.Fatalf("reschedule onto own slot: %v", err)
	}

	reloaded, err := repo.FindByID(ctx, appt.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Comment != "new comment" {
		t.Errorf("comment = %q", reloaded.Comment)
	}

	// Moving into another appointment's window still conflicts.
	err = repo.Reschedule(ctx, appt.ID, other.DateAppointment+10*60*1000, "")
	if !errors.Is(err, ErrSlotTaken) {
		t.Errorf("overlap reschedule: got %v, want ErrSlotTaken", err)
	}
}

func TestRescheduleDoesNotTouchOtherColumns(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)
	userID := seedUser(t, db, "Maria", "Lopez", true)
	ctx := context.Background()

	appt := insert(t, repo, userID, "2025-03-10T10:00:00Z", true)
	created := appt.DateCreation

	if err := repo.Reschedule(ctx, appt.ID, at(t, "2025-03-10T12:00:00Z"), "moved"); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	reloaded, err := repo.FindByID(ctx, appt.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.DateCreation != created {
		t.Errorf("date_creation changed: %d -> %d", created, reloaded.DateCreation)
	}
	if reloaded.UserID != userID {
		t.Errorf("user_id changed: %s", reloaded.UserID)
	}
}

func TestFindByIDMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)

	appt, err := repo.FindByID(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt != nil {
		t.Errorf("expected nil, got %+v", appt)
	}
}

func TestListJoinsActiveOwners(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()

	activeUser := seedUser(t, db, "Maria", "Lopez", true)
	inactiveUser := seedUser(t, db, "Ghost", "User", false)

	insert(t, repo, activeUser, "2025-03-10T10:00:00Z", true)
	insert(t, repo, inactiveUser, "2025-03-10T12:00:00Z", true)
	cancelled := insert(t, repo, activeUser, "2025-03-10T14:00:00Z", true)
	if err := repo.Deactivate(ctx, cancelled.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	rows, err := repo.FindPageAll(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1 (inactive owner and cancelled excluded)", len(rows))
	}
	if rows[0].OwnerName != "Maria" || rows[0].OwnerLastname != "Lopez" {
		t.Errorf("owner fields = %q %q", rows[0].OwnerName, rows[0].OwnerLastname)
	}
}

func TestListPaginationAndOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()
	userID := seedUser(t, db, "Maria", "Lopez", true)

	times := []string{"2025-03-10T09:00:00Z", "2025-03-10T11:00:00Z", "2025-03-10T13:00:00Z"}
	for i, when := range times {
		appt := &entity.Appointment{
			UserID:          userID,
			DateAppointment: at(t, when),
			DateCreation:    int64(1000 * (i + 1)),
			Active:          true,
		}
		if err := repo.Insert(ctx, appt); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rows, err := repo.FindPageAll(ctx, 0, 2)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("page 1 rows = %d, want 2", len(rows))
	}
	if rows[0].DateCreation < rows[1].DateCreation {
		t.Error("rows not ordered by date_creation descending")
	}

	rest, err := repo.FindPageAll(ctx, 2, 2)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(rest) != 1 {
		t.Errorf("page 2 rows = %d, want 1", len(rest))
	}

	total, err := repo.CountActive(ctx)
	if err != nil || total != 3 {
		t.Errorf("total = %d (%v), want 3", total, err)
	}
}

func TestListByUserScoping(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()

	mine := seedUser(t, db, "Maria", "Lopez", true)
	theirs := seedUser(t, db, "Pedro", "Diaz", true)

	insert(t, repo, mine, "2025-03-10T10:00:00Z", true)
	insert(t, repo, theirs, "2025-03-10T12:00:00Z", true)

	rows, err := repo.FindPageByUser(ctx, mine, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].UserID != mine {
		t.Errorf("rows = %+v", rows)
	}

	count, err := repo.CountActiveByUser(ctx, mine)
	if err != nil || count != 1 {
		t.Errorf("count = %d (%v), want 1", count, err)
	}
}

func TestFindByIDWithOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()
	userID := seedUser(t, db, "Maria", "Lopez", true)

	appt := insert(t, repo, userID, "2025-03-10T10:00:00Z", true)

	row, err := repo.FindByIDWithOwner(ctx, appt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row == nil || row.OwnerName != "Maria" {
		t.Errorf("row = %+v", row)
	}

	missing, err := repo.FindByIDWithOwner(ctx, uuid.NewString())
	if err != nil || missing != nil {
		t.Errorf("missing = %+v (%v), want nil", missing, err)
	}
}

func TestFindByIDWithOwnerIncludesCancelled(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()
	userID := seedUser(t, db, "Maria", "Lopez", true)

	appt := insert(t, repo, userID, "2025-03-10T10:00:00Z", true)
	if err := repo.Deactivate(ctx, appt.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	row, err := repo.FindByIDWithOwner(ctx, appt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row == nil {
		t.Fatal("cancelled appointment not returned by single lookup")
	}
	if row.Active {
		t.Error("row still reported active")
	}
	if row.OwnerName != "Maria" {
		t.Errorf("owner = %q", row.OwnerName)
	}
}

func TestSettingRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewSettingRepository(db)
	ctx := context.Background()

	if err := db.Create(&entity.Setting{Key: "hours_before_changes", Value: 4}).Error; err != nil {
		t.Fatalf("seed setting: %v", err)
	}

	value, found, err := repo.IntValue(ctx, "hours_before_changes")
	if err != nil || !found || value != 4 {
		t.Errorf("IntValue = %d found=%v err=%v, want 4/true/nil", value, found, err)
	}

	_, found, err = repo.IntValue(ctx, "missing_key")
	if err != nil || found {
		t.Errorf("missing key: found=%v err=%v", found, err)
	}
}
