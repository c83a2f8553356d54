// Package planstore persists advisors' client plans. Two table layouts are
// supported: the normalized layout (client_plans with bucket and result
// child tables) and the legacy single plans table holding the plan data as
// JSON. The layout in use is probed once per Store.
package planstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/planreport/internal/plan"
	"github.com/dgallion1/planreport/internal/tabledb"
)

var (
	ErrNotFound  = errors.New("plan not found")
	ErrNoSchema  = errors.New("no plan tables found")
	ErrNoMigrate = tabledb.ErrNoMigrate
)

// Schema versions.
const (
	SchemaLegacy     = 1
	SchemaNormalized = 2
)

// schema is one table layout.
type schema interface {
	version() int
	create(ctx context.Context, p plan.Plan) error
	get(ctx context.Context, userID, id string) (plan.Plan, error)
	list(ctx context.Context, userID string) ([]plan.Plan, error)
	update(ctx context.Context, old, p plan.Plan) error
	delete(ctx context.Context, p plan.Plan) error
}

// Store is safe for concurrent use.
type Store struct {
	db  tabledb.DB
	log *slog.Logger
	Now func() time.Time

	mu     sync.Mutex
	schema schema
}

// New returns a store over db. A nil logger discards.
func New(db tabledb.DB, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{db: db, log: log, Now: time.Now}
}

// layout returns the table layout, probing on first use. The normalized
// layout wins when both exist. A failed probe is not cached.
func (s *Store) layout(ctx context.Context) (schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schema != nil {
		return s.schema, nil
	}

	ok, err := s.db.HasTable(ctx, tablePlans)
	if err != nil {
		return nil, fmt.Errorf("probe schema: %w", err)
	}
	if ok {
		s.schema = &normalized{db: s.db, log: s.log}
	} else {
		ok, err = s.db.HasTable(ctx, tableLegacy)
		if err != nil {
			return nil, fmt.Errorf("probe schema: %w", err)
		}
		if !ok {
			return nil, ErrNoSchema
		}
		s.schema = &legacy{db: s.db}
	}
	s.log.Info("plan schema selected", "version", s.schema.version())
	return s.schema, nil
}

// SchemaVersion reports which layout the store uses.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	sc, err := s.layout(ctx)
	if err != nil {
		return 0, err
	}
	return sc.version(), nil
}

// Migrate creates the normalized tables if the backend accepts DDL.
func (s *Store) Migrate(ctx context.Context) error {
	m, ok := s.db.(tabledb.Migrator)
	if !ok {
		return ErrNoMigrate
	}
	for _, stmt := range normalizedDDL {
		if err := m.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	s.mu.Lock()
	s.schema = nil
	s.mu.Unlock()
	return nil
}

func (s *Store) now() time.Time {
	return s.Now().UTC().Truncate(time.Millisecond)
}

func check(p plan.Plan) error {
	if strings.TrimSpace(p.UserID) == "" {
		return &plan.ValidationError{Problems: []string{"user_id is required"}}
	}
	if strings.TrimSpace(p.Name) == "" {
		return &plan.ValidationError{Problems: []string{"plan name is required"}}
	}
	return plan.Validate(p.Data)
}

// Create stores a new plan, filling in the ID, timestamps and any missing
// bucket projections.
func (s *Store) Create(ctx context.Context, p plan.Plan) (plan.Plan, error) {
	if err := check(p); err != nil {
		return plan.Plan{}, err
	}
	sc, err := s.layout(ctx)
	if err != nil {
		return plan.Plan{}, err
	}
	p.ID = uuid.NewString()
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	if p.ClientName == "" {
		p.ClientName = p.Data.Client.Name
	}
	p.Data = plan.Compute(p.Data)

	if err := sc.create(ctx, p); err != nil {
		return plan.Plan{}, fmt.Errorf("create plan: %w", err)
	}
	s.log.Info("plan created", "plan_id", p.ID, "user_id", p.UserID, "buckets", len(p.Data.Buckets))
	return p, nil
}

// Get loads one of userID's plans.
func (s *Store) Get(ctx context.Context, userID, id string) (plan.Plan, error) {
	sc, err := s.layout(ctx)
	if err != nil {
		return plan.Plan{}, err
	}
	return sc.get(ctx, userID, id)
}

// List returns userID's plans, most recently updated first.
func (s *Store) List(ctx context.Context, userID string) ([]plan.Plan, error) {
	sc, err := s.layout(ctx)
	if err != nil {
		return nil, err
	}
	return sc.list(ctx, userID)
}

// Update replaces a plan's name, client, company and data. Projections are
// recomputed for buckets that lack one.
func (s *Store) Update(ctx context.Context, p plan.Plan) (plan.Plan, error) {
	if err := check(p); err != nil {
		return plan.Plan{}, err
	}
	sc, err := s.layout(ctx)
	if err != nil {
		return plan.Plan{}, err
	}
	old, err := sc.get(ctx, p.UserID, p.ID)
	if err != nil {
		return plan.Plan{}, err
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = s.now()
	if p.ClientName == "" {
		p.ClientName = p.Data.Client.Name
	}
	p.Data = plan.Compute(p.Data)

	if err := sc.update(ctx, old, p); err != nil {
		return plan.Plan{}, fmt.Errorf("update plan: %w", err)
	}
	s.log.Info("plan updated", "plan_id", p.ID, "user_id", p.UserID)
	return p, nil
}

// Delete removes one of userID's plans.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	sc, err := s.layout(ctx)
	if err != nil {
		return err
	}
	old, err := sc.get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := sc.delete(ctx, old); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	s.log.Info("plan deleted", "plan_id", id, "user_id", userID)
	return nil
}
