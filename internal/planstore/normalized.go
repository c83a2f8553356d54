package planstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dgallion1/planreport/internal/plan"
	"github.com/dgallion1/planreport/internal/saga"
	"github.com/dgallion1/planreport/internal/tabledb"
)

const (
	tablePlans   = "client_plans"
	tableBuckets = "client_plan_buckets"
	tableResults = "client_plan_results"
)

var normalizedDDL = []string{
	`CREATE TABLE IF NOT EXISTS client_plans (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		client_name TEXT NOT NULL,
		company_name TEXT,
		client_profile TEXT NOT NULL,
		notes TEXT,
		notes_format TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS client_plans_user_idx ON client_plans (user_id)`,
	`CREATE TABLE IF NOT EXISTS client_plan_buckets (
		plan_id TEXT NOT NULL,
		bucket_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT,
		premium_amount DOUBLE PRECISION,
		interest_rate DOUBLE PRECISION,
		delay_period INTEGER,
		income_periods INTEGER,
		percentage DOUBLE PRECISION,
		risk_tolerance TEXT,
		PRIMARY KEY (plan_id, bucket_id)
	)`,
	`CREATE TABLE IF NOT EXISTS client_plan_results (
		plan_id TEXT NOT NULL,
		bucket_id TEXT NOT NULL,
		future_value DOUBLE PRECISION,
		income_solve DOUBLE PRECISION,
		annuity_payment DOUBLE PRECISION,
		estimated_premium DOUBLE PRECISION,
		PRIMARY KEY (plan_id, bucket_id)
	)`,
}

// normalized stores the plan header, its buckets and their results in
// separate tables. Multi-row writes run as a saga.
type normalized struct {
	db  tabledb.DB
	log *slog.Logger
}

func (n *normalized) version() int { return SchemaNormalized }

func planRow(p plan.Plan) (tabledb.Row, error) {
	profile, err := json.Marshal(p.Data.Client)
	if err != nil {
		return nil, fmt.Errorf("marshal client profile: %w", err)
	}
	return tabledb.Row{
		"id":             p.ID,
		"user_id":        p.UserID,
		"name":           p.Name,
		"client_name":    p.ClientName,
		"company_name":   p.CompanyName,
		"client_profile": string(profile),
		"notes":          p.Data.Notes,
		"notes_format":   p.Data.NotesFormat,
		"created_at":     p.CreatedAt,
		"updated_at":     p.UpdatedAt,
	}, nil
}

func bucketRow(planID string, pos int, b plan.Bucket) tabledb.Row {
	return tabledb.Row{
		"plan_id":        planID,
		"bucket_id":      b.ID,
		"position":       pos,
		"name":           b.Name,
		"premium_amount": b.PremiumAmount,
		"interest_rate":  b.InterestRate,
		"delay_period":   b.DelayPeriod,
		"income_periods": b.IncomePeriods,
		"percentage":     b.Percentage,
		"risk_tolerance": b.RiskTolerance,
	}
}

func resultRow(planID, bucketID string, r plan.Result) tabledb.Row {
	return tabledb.Row{
		"plan_id":           planID,
		"bucket_id":         bucketID,
		"future_value":      r.FutureValue,
		"income_solve":      r.IncomeSolve,
		"annuity_payment":   r.AnnuityPayment,
		"estimated_premium": r.EstimatedPremium,
	}
}

// childRows returns the bucket and result rows of p in a stable order.
func childRows(p plan.Plan) (buckets, results []tabledb.Row) {
	for i, b := range p.Data.Buckets {
		buckets = append(buckets, bucketRow(p.ID, i, b))
	}
	ids := make([]string, 0, len(p.Data.Results))
	for id := range p.Data.Results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		results = append(results, resultRow(p.ID, id, p.Data.Results[id]))
	}
	return buckets, results
}

func childKey(r tabledb.Row) tabledb.Filter {
	return tabledb.Filter{"plan_id": r["plan_id"], "bucket_id": r["bucket_id"]}
}

// insertSteps adds one step per row, each undone by deleting that row.
func (n *normalized) insertSteps(s *saga.Saga, table string, rows []tabledb.Row) {
	for _, r := range rows {
		s.Step("insert "+table+" "+r.String("bucket_id"),
			func(ctx context.Context) error { return n.db.Insert(ctx, table, r) },
			func(ctx context.Context) error {
				_, err := n.db.Delete(ctx, table, childKey(r))
				return err
			})
	}
}

// clearStep deletes every child row of a plan; undone by reinserting old.
func (n *normalized) clearStep(s *saga.Saga, table, planID string, old []tabledb.Row) {
	s.Step("clear "+table,
		func(ctx context.Context) error {
			_, err := n.db.Delete(ctx, table, tabledb.Filter{"plan_id": planID})
			return err
		},
		func(ctx context.Context) error {
			for _, r := range old {
				if err := n.db.Insert(ctx, table, r); err != nil {
					return err
				}
			}
			return nil
		})
}

func (n *normalized) create(ctx context.Context, p plan.Plan) error {
	row, err := planRow(p)
	if err != nil {
		return err
	}
	buckets, results := childRows(p)

	s := saga.New(n.log.With("plan_id", p.ID))
	s.Step("insert "+tablePlans,
		func(ctx context.Context) error { return n.db.Insert(ctx, tablePlans, row) },
		func(ctx context.Context) error {
			_, err := n.db.Delete(ctx, tablePlans, tabledb.Filter{"id": p.ID})
			return err
		})
	n.insertSteps(s, tableBuckets, buckets)
	n.insertSteps(s, tableResults, results)
	return s.Run(ctx)
}

func (n *normalized) update(ctx context.Context, old, p plan.Plan) error {
	oldRow, err := planRow(old)
	if err != nil {
		return err
	}
	row, err := planRow(p)
	if err != nil {
		return err
	}
	delete(row, "id")
	delete(row, "created_at")
	delete(oldRow, "id")
	delete(oldRow, "created_at")
	key := tabledb.Filter{"id": p.ID, "user_id": p.UserID}

	oldBuckets, oldResults := childRows(old)
	buckets, results := childRows(p)

	s := saga.New(n.log.With("plan_id", p.ID))
	s.Step("update "+tablePlans,
		func(ctx context.Context) error {
			count, err := n.db.Update(ctx, tablePlans, row, key)
			if err == nil && count == 0 {
				return ErrNotFound
			}
			return err
		},
		func(ctx context.Context) error {
			_, err := n.db.Update(ctx, tablePlans, oldRow, key)
			return err
		})
	n.clearStep(s, tableResults, p.ID, oldResults)
	n.clearStep(s, tableBuckets, p.ID, oldBuckets)
	n.insertSteps(s, tableBuckets, buckets)
	n.insertSteps(s, tableResults, results)
	return s.Run(ctx)
}

func (n *normalized) delete(ctx context.Context, p plan.Plan) error {
	row, err := planRow(p)
	if err != nil {
		return err
	}
	buckets, results := childRows(p)

	s := saga.New(n.log.With("plan_id", p.ID))
	n.clearStep(s, tableResults, p.ID, results)
	n.clearStep(s, tableBuckets, p.ID, buckets)
	s.Step("delete "+tablePlans,
		func(ctx context.Context) error {
			_, err := n.db.Delete(ctx, tablePlans, tabledb.Filter{"id": p.ID, "user_id": p.UserID})
			return err
		},
		func(ctx context.Context) error { return n.db.Insert(ctx, tablePlans, row) })
	return s.Run(ctx)
}

func (n *normalized) get(ctx context.Context, userID, id string) (plan.Plan, error) {
	rows, err := n.db.Select(ctx, tablePlans, tabledb.Filter{"id": id, "user_id": userID}, "")
	if err != nil {
		return plan.Plan{}, fmt.Errorf("get plan: %w", err)
	}
	if len(rows) == 0 {
		return plan.Plan{}, ErrNotFound
	}
	return n.load(ctx, rows[0])
}

func (n *normalized) list(ctx context.Context, userID string) ([]plan.Plan, error) {
	rows, err := n.db.Select(ctx, tablePlans, tabledb.Filter{"user_id": userID}, "-updated_at")
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	out := make([]plan.Plan, 0, len(rows))
	for _, r := range rows {
		p, err := n.load(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// load assembles a plan from its header row and child tables.
func (n *normalized) load(ctx context.Context, r tabledb.Row) (plan.Plan, error) {
	p := plan.Plan{
		ID:          r.String("id"),
		UserID:      r.String("user_id"),
		Name:        r.String("name"),
		ClientName:  r.String("client_name"),
		CompanyName: r.String("company_name"),
		CreatedAt:   r.Time("created_at"),
		UpdatedAt:   r.Time("updated_at"),
	}
	p.Data.Notes = r.String("notes")
	p.Data.NotesFormat = r.String("notes_format")
	if raw := jsonColumn(r, "client_profile"); raw != nil {
		if err := json.Unmarshal(raw, &p.Data.Client); err != nil {
			return plan.Plan{}, fmt.Errorf("decode client profile of plan %s: %w", p.ID, err)
		}
	}

	brows, err := n.db.Select(ctx, tableBuckets, tabledb.Filter{"plan_id": p.ID}, "position")
	if err != nil {
		return plan.Plan{}, fmt.Errorf("load buckets: %w", err)
	}
	for _, b := range brows {
		p.Data.Buckets = append(p.Data.Buckets, plan.Bucket{
			ID:            b.String("bucket_id"),
			Name:          b.String("name"),
			PremiumAmount: b.Float("premium_amount"),
			InterestRate:  b.Float("interest_rate"),
			DelayPeriod:   b.Int("delay_period"),
			IncomePeriods: b.Int("income_periods"),
			Percentage:    b.Float("percentage"),
			RiskTolerance: b.String("risk_tolerance"),
		})
	}

	rrows, err := n.db.Select(ctx, tableResults, tabledb.Filter{"plan_id": p.ID}, "")
	if err != nil {
		return plan.Plan{}, fmt.Errorf("load results: %w", err)
	}
	p.Data.Results = make(map[string]plan.Result, len(rrows))
	for _, rr := range rrows {
		p.Data.Results[rr.String("bucket_id")] = plan.Result{
			FutureValue:      rr.Float("future_value"),
			IncomeSolve:      rr.Float("income_solve"),
			AnnuityPayment:   rr.Float("annuity_payment"),
			EstimatedPremium: rr.Float("estimated_premium"),
		}
	}
	return p, nil
}

// jsonColumn returns a JSON column's raw bytes. Hosted backends decode
// json columns into maps; SQL backends return text.
func jsonColumn(r tabledb.Row, k string) []byte {
	switch v := r[k].(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return []byte(v)
	case []byte:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return b
	}
}
