package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/SaintsFlow/booking-calendar/internal/event"
	"github.com/SaintsFlow/booking-calendar/internal/model"
	"github.com/SaintsFlow/booking-calendar/internal/repository"
)

// capturedEvents records dispatched events instead of publishing them.
type capturedEvents struct {
	events []event.Event
}

func (c *capturedEvents) Dispatch(ev event.Event) {
	c.events = append(c.events, ev)
}

func (c *capturedEvents) last(t *testing.T) event.Event {
	t.Helper()
	if len(c.events) == 0 {
		t.Fatalf("no events captured")
	}
	return c.events[len(c.events)-1]
}

type testEnv struct {
	db   *gorm.DB
	sink *capturedEvents

	bookings   repository.BookingRepository
	vacations  repository.VacationRepository
	schedule   *ScheduleService
	booking    *BookingService
	duplicates *DuplicateService

	tenantID   uuid.UUID
	employeeID uuid.UUID
	clientID   uuid.UUID
	statusID   uuid.UUID // confirmed, default
	serviceA   model.Service
	serviceB   model.Service
}

// newTestEnv opens an in-memory sqlite DB with a hand-written schema
// (the model defaults like gen_random_uuid() are Postgres-only) and wires
// the full service stack on top of it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	schema := []string{
		`CREATE TABLE tenants (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			working_hours TEXT,
			custom_schedules TEXT,
			crm_user_id TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE clients (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT,
			phone TEXT,
			email TEXT,
			comment TEXT,
			crm_contact_id TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE workplaces (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			address TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			sort_order INTEGER NOT NULL DEFAULT 0,
			working_hours TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE services (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			workplace_id TEXT,
			name TEXT NOT NULL,
			description TEXT,
			duration_minutes INTEGER NOT NULL DEFAULT 60,
			price REAL NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			crm_product_id TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE statuses (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			code TEXT NOT NULL,
			color TEXT,
			is_default INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE employee_vacations (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			employee_id TEXT NOT NULL,
			start_date DATETIME NOT NULL,
			end_date DATETIME NOT NULL,
			type TEXT NOT NULL DEFAULT 'vacation',
			reason TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE bookings (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			workplace_id TEXT,
			employee_id TEXT NOT NULL,
			client_id TEXT NOT NULL,
			status_id TEXT NOT NULL,
			created_by TEXT NOT NULL,
			updated_by TEXT,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			duration_minutes INTEGER NOT NULL DEFAULT 0,
			total_price REAL NOT NULL DEFAULT 0,
			comment TEXT,
			client_attended INTEGER NOT NULL DEFAULT 0,
			attended_at DATETIME,
			attended_by TEXT,
			crm_deal_id TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		);`,
		`CREATE TABLE booking_services (
			id TEXT PRIMARY KEY,
			booking_id TEXT NOT NULL,
			service_id TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			price REAL NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		);`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink := &capturedEvents{}

	bookingRepo := repository.NewGormBookingRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	clientRepo := repository.NewGormClientRepository(db)
	workplaceRepo := repository.NewGormWorkplaceRepository(db)
	serviceRepo := repository.NewGormServiceRepository(db)
	statusRepo := repository.NewGormStatusRepository(db)
	vacationRepo := repository.NewGormVacationRepository(db)

	scheduleSvc := NewScheduleService(userRepo, workplaceRepo, vacationRepo, bookingRepo, nil, log)

	env := &testEnv{
		db:         db,
		sink:       sink,
		bookings:   bookingRepo,
		vacations:  vacationRepo,
		schedule:   scheduleSvc,
		booking:    NewBookingService(db, bookingRepo, userRepo, clientRepo, serviceRepo, statusRepo, scheduleSvc, sink, nil, log),
		duplicates: NewDuplicateService(bookingRepo, log),
	}

	env.tenantID = uuid.New()
	env.employeeID = uuid.New()
	env.clientID = uuid.New()
	env.statusID = uuid.New()

	if err := db.Create(&model.Tenant{ID: env.tenantID, Name: "salon", IsActive: true}).Error; err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	// No personal schedule: the employee works the default Mon-Fri 09:00-18:00.
	if err := db.Create(&model.User{ID: env.employeeID, TenantID: env.tenantID, Name: "master", IsActive: true}).Error; err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	if err := db.Create(&model.Client{ID: env.clientID, TenantID: env.tenantID, FirstName: "client"}).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	if err := db.Create(&model.Status{
		ID:        env.statusID,
		TenantID:  env.tenantID,
		Name:      "Confirmed",
		Code:      model.StatusCodeConfirmed,
		IsDefault: true,
	}).Error; err != nil {
		t.Fatalf("seed status: %v", err)
	}

	env.serviceA = model.Service{
		ID:              uuid.New(),
		TenantID:        env.tenantID,
		Name:            "haircut",
		DurationMinutes: 30,
		Price:           100,
		IsActive:        true,
	}
	env.serviceB = model.Service{
		ID:              uuid.New(),
		TenantID:        env.tenantID,
		Name:            "coloring",
		DurationMinutes: 60,
		Price:           200,
		IsActive:        true,
	}
	if err := db.Create(&env.serviceA).Error; err != nil {
		t.Fatalf("seed service A: %v", err)
	}
	if err := db.Create(&env.serviceB).Error; err != nil {
		t.Fatalf("seed service B: %v", err)
	}

	return env
}

// seedStatus inserts an extra status into the fixture tenant.
func (e *testEnv) seedStatus(t *testing.T, code string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := e.db.Create(&model.Status{
		ID:       id,
		TenantID: e.tenantID,
		Name:     code,
		Code:     code,
	}).Error
	if err != nil {
		t.Fatalf("seed status %s: %v", code, err)
	}
	return id
}

// mondayAt returns a fixed working Monday at the given local time.
func mondayAt(hour, min int) time.Time {
	return time.Date(2025, 6, 2, hour, min, 0, 0, time.UTC)
}

// futureMondayAt returns the next Monday at least a week away.
// Restore rules compare against the wall clock, so those tests need
// bookings that genuinely start in the future.
func futureMondayAt(hour, min int) time.Time {
	d := time.Now().UTC().AddDate(0, 0, 7)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, min, 0, 0, time.UTC)
}
