package planstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgallion1/planreport/internal/plan"
	"github.com/dgallion1/planreport/internal/tabledb"
)

const tableLegacy = "plans"

// legacyDDL is the shape of the old plans table. Migrate never creates it.
const legacyDDL = `CREATE TABLE IF NOT EXISTS plans (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	client_name TEXT,
	company_name TEXT,
	plan_data TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// legacy keeps the whole plan data in one JSON column, so every write is a
// single row.
type legacy struct {
	db tabledb.DB
}

func (l *legacy) version() int { return SchemaLegacy }

func legacyRow(p plan.Plan) (tabledb.Row, error) {
	data, err := json.Marshal(p.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal plan data: %w", err)
	}
	return tabledb.Row{
		"id":           p.ID,
		"user_id":      p.UserID,
		"name":         p.Name,
		"client_name":  p.ClientName,
		"company_name": p.CompanyName,
		"plan_data":    string(data),
		"created_at":   p.CreatedAt,
		"updated_at":   p.UpdatedAt,
	}, nil
}

func fromLegacyRow(r tabledb.Row) (plan.Plan, error) {
	p := plan.Plan{
		ID:          r.String("id"),
		UserID:      r.String("user_id"),
		Name:        r.String("name"),
		ClientName:  r.String("client_name"),
		CompanyName: r.String("company_name"),
		CreatedAt:   r.Time("created_at"),
		UpdatedAt:   r.Time("updated_at"),
	}
	if raw := jsonColumn(r, "plan_data"); raw != nil {
		if err := json.Unmarshal(raw, &p.Data); err != nil {
			return plan.Plan{}, fmt.Errorf("decode plan data of %s: %w", p.ID, err)
		}
	}
	if p.ClientName == "" {
		p.ClientName = p.Data.Client.Name
	}
	return p, nil
}

func (l *legacy) create(ctx context.Context, p plan.Plan) error {
	row, err := legacyRow(p)
	if err != nil {
		return err
	}
	return l.db.Insert(ctx, tableLegacy, row)
}

func (l *legacy) get(ctx context.Context, userID, id string) (plan.Plan, error) {
	rows, err := l.db.Select(ctx, tableLegacy, tabledb.Filter{"id": id, "user_id": userID}, "")
	if err != nil {
		return plan.Plan{}, fmt.Errorf("get plan: %w", err)
	}
	if len(rows) == 0 {
		return plan.Plan{}, ErrNotFound
	}
	return fromLegacyRow(rows[0])
}

func (l *legacy) list(ctx context.Context, userID string) ([]plan.Plan, error) {
	rows, err := l.db.Select(ctx, tableLegacy, tabledb.Filter{"user_id": userID}, "-updated_at")
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	out := make([]plan.Plan, 0, len(rows))
	for _, r := range rows {
		p, err := fromLegacyRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (l *legacy) update(ctx context.Context, _, p plan.Plan) error {
	row, err := legacyRow(p)
	if err != nil {
		return err
	}
	delete(row, "id")
	delete(row, "created_at")
	n, err := l.db.Update(ctx, tableLegacy, row, tabledb.Filter{"id": p.ID, "user_id": p.UserID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (l *legacy) delete(ctx context.Context, p plan.Plan) error {
	_, err := l.db.Delete(ctx, tableLegacy, tabledb.Filter{"id": p.ID, "user_id": p.UserID})
	return err
}
