package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/planreport/internal/saga"
	"github.com/dgallion1/planreport/internal/tabledb"
)

var ErrNotFound = errors.New("event not found")

const (
	tableEvents       = "marketing_events"
	tableAttendance   = "event_attendance"
	tableAppointments = "event_appointments"
	tableProduction   = "event_production"
)

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS marketing_events (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		date TEXT NOT NULL,
		location TEXT,
		marketing_cost DOUBLE PRECISION,
		venue_cost DOUBLE PRECISION,
		food_cost DOUBLE PRECISION,
		other_cost DOUBLE PRECISION,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS marketing_events_user_idx ON marketing_events (user_id)`,
	`CREATE TABLE IF NOT EXISTS event_attendance (
		event_id TEXT PRIMARY KEY,
		registrants INTEGER,
		attendees INTEGER,
		households INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS event_appointments (
		event_id TEXT PRIMARY KEY,
		set_count INTEGER,
		first_kept INTEGER,
		second_kept INTEGER,
		not_qualified INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS event_production (
		event_id TEXT PRIMARY KEY,
		annuity_premium DOUBLE PRECISION,
		annuity_commission_rate DOUBLE PRECISION,
		life_premium DOUBLE PRECISION,
		life_commission_rate DOUBLE PRECISION,
		aum DOUBLE PRECISION,
		aum_fee_rate DOUBLE PRECISION,
		clients INTEGER,
		annuity_commission DOUBLE PRECISION,
		life_commission DOUBLE PRECISION,
		aum_income DOUBLE PRECISION,
		total_income DOUBLE PRECISION
	)`,
}

// Service stores events across the event table and its three child tables.
type Service struct {
	db  tabledb.DB
	log *slog.Logger
	Now func() time.Time
}

// NewService returns a service over db. A nil logger discards.
func NewService(db tabledb.DB, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{db: db, log: log, Now: time.Now}
}

// Migrate creates the event tables if the backend accepts DDL.
func (s *Service) Migrate(ctx context.Context) error {
	m, ok := s.db.(tabledb.Migrator)
	if !ok {
		return tabledb.ErrNoMigrate
	}
	for _, stmt := range ddl {
		if err := m.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate events: %w", err)
		}
	}
	return nil
}

func eventRow(e Event) tabledb.Row {
	return tabledb.Row{
		"id":             e.ID,
		"user_id":        e.UserID,
		"name":           e.Name,
		"type":           e.Type,
		"date":           e.Date,
		"location":       e.Location,
		"marketing_cost": e.MarketingCost,
		"venue_cost":     e.VenueCost,
		"food_cost":      e.FoodCost,
		"other_cost":     e.OtherCost,
		"notes":          e.Notes,
		"created_at":     e.CreatedAt,
		"updated_at":     e.UpdatedAt,
	}
}

// child is one of the per-event tables.
type child struct {
	table string
	row   func(Event) tabledb.Row
}

var children = []child{
	{tableAttendance, func(e Event) tabledb.Row {
		a := e.Attendance
		return tabledb.Row{"event_id": e.ID, "registrants": a.Registrants, "attendees": a.Attendees, "households": a.Households}
	}},
	{tableAppointments, func(e Event) tabledb.Row {
		a := e.Appointments
		return tabledb.Row{"event_id": e.ID, "set_count": a.Set, "first_kept": a.FirstKept, "second_kept": a.SecondKept, "not_qualified": a.NotQualified}
	}},
	{tableProduction, func(e Event) tabledb.Row {
		p := e.Production
		return tabledb.Row{
			"event_id":                e.ID,
			"annuity_premium":         p.AnnuityPremium,
			"annuity_commission_rate": p.AnnuityCommissionRate,
			"life_premium":            p.LifePremium,
			"life_commission_rate":    p.LifeCommissionRate,
			"aum":                     p.AUM,
			"aum_fee_rate":            p.AUMFeeRate,
			"clients":                 p.Clients,
			"annuity_commission":      p.AnnuityCommission,
			"life_commission":         p.LifeCommission,
			"aum_income":              p.AUMIncome,
			"total_income":            p.TotalIncome,
		}
	}},
}

// upsert updates the row keyed by event_id, inserting it when absent.
func (s *Service) upsert(ctx context.Context, table string, row tabledb.Row) error {
	set := make(tabledb.Row, len(row))
	for k, v := range row {
		if k != "event_id" {
			set[k] = v
		}
	}
	n, err := s.db.Update(ctx, table, set, tabledb.Filter{"event_id": row["event_id"]})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return s.db.Insert(ctx, table, row)
}

func (s *Service) now() time.Time {
	return s.Now().UTC().Truncate(time.Millisecond)
}

// Create stores a new event: the event row first, then attendance,
// appointments and production. A failed child write removes what was
// already written.
func (s *Service) Create(ctx context.Context, e Event) (Event, error) {
	if err := Validate(e); err != nil {
		return Event{}, err
	}
	e.ID = uuid.NewString()
	e.CreatedAt = s.now()
	e.UpdatedAt = e.CreatedAt
	e.Production = e.Production.Compute()

	sg := saga.New(s.log.With("event_id", e.ID))
	sg.Step("insert "+tableEvents,
		func(ctx context.Context) error { return s.db.Insert(ctx, tableEvents, eventRow(e)) },
		func(ctx context.Context) error {
			_, err := s.db.Delete(ctx, tableEvents, tabledb.Filter{"id": e.ID})
			return err
		})
	for _, c := range children {
		sg.Step("insert "+c.table,
			func(ctx context.Context) error { return s.db.Insert(ctx, c.table, c.row(e)) },
			func(ctx context.Context) error {
				_, err := s.db.Delete(ctx, c.table, tabledb.Filter{"event_id": e.ID})
				return err
			})
	}
	if err := sg.Run(ctx); err != nil {
		return Event{}, fmt.Errorf("create event: %w", err)
	}
	s.log.Info("event created", "event_id", e.ID, "user_id", e.UserID)
	return e, nil
}

// Get loads one of userID's events.
func (s *Service) Get(ctx context.Context, userID, id string) (Event, error) {
	rows, err := s.db.Select(ctx, tableEvents, tabledb.Filter{"id": id, "user_id": userID}, "")
	if err != nil {
		return Event{}, fmt.Errorf("get event: %w", err)
	}
	if len(rows) == 0 {
		return Event{}, ErrNotFound
	}
	return s.load(ctx, rows[0])
}

// List returns userID's events, most recent date first.
func (s *Service) List(ctx context.Context, userID string) ([]Event, error) {
	rows, err := s.db.Select(ctx, tableEvents, tabledb.Filter{"user_id": userID}, "-date")
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]Event, 0, len(rows))
	for _, r := range rows {
		e, err := s.load(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// load reads the child rows of an event. A missing child row leaves its
// section zero.
func (s *Service) load(ctx context.Context, r tabledb.Row) (Event, error) {
	e := Event{
		ID:            r.String("id"),
		UserID:        r.String("user_id"),
		Name:          r.String("name"),
		Type:          r.String("type"),
		Date:          r.Time("date"),
		Location:      r.String("location"),
		MarketingCost: r.Float("marketing_cost"),
		VenueCost:     r.Float("venue_cost"),
		FoodCost:      r.Float("food_cost"),
		OtherCost:     r.Float("other_cost"),
		Notes:         r.String("notes"),
		CreatedAt:     r.Time("created_at"),
		UpdatedAt:     r.Time("updated_at"),
	}
	key := tabledb.Filter{"event_id": e.ID}

	rows, err := s.db.Select(ctx, tableAttendance, key, "")
	if err != nil {
		return Event{}, fmt.Errorf("load attendance: %w", err)
	}
	if len(rows) > 0 {
		a := rows[0]
		e.Attendance = Attendance{Registrants: a.Int("registrants"), Attendees: a.Int("attendees"), Households: a.Int("households")}
	}

	rows, err = s.db.Select(ctx, tableAppointments, key, "")
	if err != nil {
		return Event{}, fmt.Errorf("load appointments: %w", err)
	}
	if len(rows) > 0 {
		a := rows[0]
		e.Appointments = Appointments{Set: a.Int("set_count"), FirstKept: a.Int("first_kept"), SecondKept: a.Int("second_kept"), NotQualified: a.Int("not_qualified")}
	}

	rows, err = s.db.Select(ctx, tableProduction, key, "")
	if err != nil {
		return Event{}, fmt.Errorf("load production: %w", err)
	}
	if len(rows) > 0 {
		p := rows[0]
		e.Production = Production{
			AnnuityPremium:        p.Float("annuity_premium"),
			AnnuityCommissionRate: p.Float("annuity_commission_rate"),
			LifePremium:           p.Float("life_premium"),
			LifeCommissionRate:    p.Float("life_commission_rate"),
			AUM:                   p.Float("aum"),
			AUMFeeRate:            p.Float("aum_fee_rate"),
			Clients:               p.Int("clients"),
		}.Compute()
	}
	return e, nil
}

// Update replaces an event and its child rows. Child rows are upserted by
// event ID, and each write is reverted if a later one fails.
func (s *Service) Update(ctx context.Context, e Event) (Event, error) {
	if err := Validate(e); err != nil {
		return Event{}, err
	}
	old, err := s.Get(ctx, e.UserID, e.ID)
	if err != nil {
		return Event{}, err
	}
	e.CreatedAt = old.CreatedAt
	e.UpdatedAt = s.now()
	e.Production = e.Production.Compute()

	key := tabledb.Filter{"id": e.ID, "user_id": e.UserID}
	set := func(ev Event) tabledb.Row {
		r := eventRow(ev)
		delete(r, "id")
		delete(r, "created_at")
		return r
	}

	sg := saga.New(s.log.With("event_id", e.ID))
	sg.Step("update "+tableEvents,
		func(ctx context.Context) error {
			n, err := s.db.Update(ctx, tableEvents, set(e), key)
			if err == nil && n == 0 {
				return ErrNotFound
			}
			return err
		},
		func(ctx context.Context) error {
			_, err := s.db.Update(ctx, tableEvents, set(old), key)
			return err
		})
	for _, c := range children {
		sg.Step("upsert "+c.table,
			func(ctx context.Context) error { return s.upsert(ctx, c.table, c.row(e)) },
			func(ctx context.Context) error { return s.upsert(ctx, c.table, c.row(old)) })
	}
	if err := sg.Run(ctx); err != nil {
		return Event{}, fmt.Errorf("update event: %w", err)
	}
	s.log.Info("event updated", "event_id", e.ID, "user_id", e.UserID)
	return e, nil
}

// Delete removes an event and its child rows.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	old, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	sg := saga.New(s.log.With("event_id", id))
	for _, c := range children {
		sg.Step("delete "+c.table,
			func(ctx context.Context) error {
				_, err := s.db.Delete(ctx, c.table, tabledb.Filter{"event_id": id})
				return err
			},
			func(ctx context.Context) error { return s.db.Insert(ctx, c.table, c.row(old)) })
	}
	sg.Step("delete "+tableEvents,
		func(ctx context.Context) error {
			_, err := s.db.Delete(ctx, tableEvents, tabledb.Filter{"id": id, "user_id": userID})
			return err
		},
		func(ctx context.Context) error { return s.db.Insert(ctx, tableEvents, eventRow(old)) })
	if err := sg.Run(ctx); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	s.log.Info("event deleted", "event_id", id, "user_id", userID)
	return nil
}

// Summary aggregates userID's events.
func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(list), nil
}
