// Package store provides a SQLite-backed snapshot store for parsed plans.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/plan"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNotFound is returned when a plan is not in the store.
var ErrNotFound = errors.New("plan not found")

// Store persists plan snapshots and source-file tracking.
type Store struct {
	db *sql.DB
}

// Open opens or creates the store database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the store database.
func (s *Store) Close() error {
	return s.db.Close()
}

// FileInfo holds the tracked mtime and size for a plan file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
	PlanID    string
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (s *Store) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := s.db.Query("SELECT file_path, mtime_ns, size_bytes, plan_id FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes, &fi.PlanID); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// SavePlan replaces the stored snapshot of p. When sourcePath is set the
// file tracker is updated in the same transaction.
func (s *Store) SavePlan(p plan.Plan, sourcePath string, mtimeNs, sizeBytes int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)

	// Cascades clear the plan's lines, resources and entries.
	if _, err := tx.Exec("DELETE FROM plans WHERE plan_id = ?", p.ID); err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT INTO plans
		(plan_id, name, currency, fy_start_month, fy_start_year, num_months,
		 approved_budget, last_updated_at, source_path, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Currency, p.FY.StartMonth, p.FY.StartYear, p.FY.NumMonths,
		p.ApprovedBudget, formatTime(p.LastUpdatedAt), sourcePath, now,
	)
	if err != nil {
		return err
	}

	for i, l := range p.Lines {
		_, err = tx.Exec(`INSERT INTO cost_lines
			(plan_id, line_id, position, category, description, budgeted, actual, forecast, notes, override)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, l.ID, i, string(l.Category), l.Description, l.Budgeted, l.Actual, l.Forecast, l.Notes, boolInt(l.Override),
		)
		if err != nil {
			return err
		}
	}

	for i, r := range p.Resources {
		_, err = tx.Exec(`INSERT INTO resources
			(plan_id, resource_id, position, user_id, name, role, resource_type, rate_type,
			 day_rate, planned_days, monthly_cost, planned_months, cost_line_id, start_month, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, r.ID, i, r.UserID, r.Name, r.Role, string(r.Type), string(r.RateType),
			r.DayRate, r.PlannedDays.String(), r.MonthlyCost, r.PlannedMonths, r.CostLineID, string(r.StartMonth), r.Notes,
		)
		if err != nil {
			return err
		}
	}

	for lineID, months := range p.Monthly {
		for mk, e := range months {
			_, err = tx.Exec(`INSERT INTO monthly_entries
				(plan_id, line_id, month, budget, actual, forecast, customer_rate, locked)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				p.ID, lineID, string(mk), e.Budget, e.Actual, e.Forecast, e.CustomerRate, boolInt(e.Locked),
			)
			if err != nil {
				return err
			}
		}
	}

	if sourcePath != "" {
		_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes, plan_id)
			VALUES (?, ?, ?, ?)`, sourcePath, mtimeNs, sizeBytes, p.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecordEvent appends a mutation event to the plan's history.
func (s *Store) RecordEvent(ev plan.Event) error {
	_, err := s.db.Exec("INSERT INTO plan_events (plan_id, mutation, at) VALUES (?, ?, ?)",
		ev.PlanID, ev.Mutation, formatTime(ev.At))
	return err
}

// Persist stores the event's snapshot and records the event. It matches
// plan.Listener so a session can save after every edit.
func (s *Store) Persist(ev plan.Event) error {
	sourcePath, err := s.SourcePath(ev.PlanID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	var fi FileInfo
	if sourcePath != "" {
		tracked, err := s.GetTrackedFiles()
		if err != nil {
			return err
		}
		fi = tracked[sourcePath]
	}
	if err := s.SavePlan(ev.Plan, sourcePath, fi.MtimeNs, fi.SizeBytes); err != nil {
		return fmt.Errorf("saving plan %s: %w", ev.PlanID, err)
	}
	return s.RecordEvent(ev)
}

// SourcePath returns the file the stored snapshot of planID was read from.
func (s *Store) SourcePath(planID string) (string, error) {
	var path sql.NullString
	err := s.db.QueryRow("SELECT source_path FROM plans WHERE plan_id = ?", planID).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return path.String, err
}

// EventCount returns the number of recorded events for a plan.
func (s *Store) EventCount(planID string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM plan_events WHERE plan_id = ?", planID).Scan(&count)
	return count, err
}

// LoadPlan reads one plan snapshot.
func (s *Store) LoadPlan(planID string) (plan.Plan, error) {
	plans, err := s.loadPlans("WHERE plan_id = ?", planID)
	if err != nil {
		return plan.Plan{}, err
	}
	if len(plans) == 0 {
		return plan.Plan{}, fmt.Errorf("%s: %w", planID, ErrNotFound)
	}
	return plans[0], nil
}

// LoadAllPlans reads every stored plan, ordered by ID.
func (s *Store) LoadAllPlans() ([]plan.Plan, error) {
	return s.loadPlans("")
}

func (s *Store) loadPlans(where string, args ...any) ([]plan.Plan, error) {
	rows, err := s.db.Query(`SELECT plan_id, name, currency, fy_start_month, fy_start_year, num_months,
		approved_budget, last_updated_at FROM plans `+where+` ORDER BY plan_id`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var plans []plan.Plan
	idx := make(map[string]int)
	for rows.Next() {
		var p plan.Plan
		var updated sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Currency, &p.FY.StartMonth, &p.FY.StartYear, &p.FY.NumMonths,
			&p.ApprovedBudget, &updated); err != nil {
			return nil, err
		}
		if updated.String != "" {
			p.LastUpdatedAt, _ = time.Parse(time.RFC3339Nano, updated.String)
		}
		p.Monthly = model.MonthlyData{}
		idx[p.ID] = len(plans)
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_ = rows.Close()

	if len(plans) == 0 {
		return plans, nil
	}
	if err := s.loadLines(plans, idx); err != nil {
		return nil, err
	}
	if err := s.loadResources(plans, idx); err != nil {
		return nil, err
	}
	if err := s.loadEntries(plans, idx); err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *Store) loadLines(plans []plan.Plan, idx map[string]int) error {
	rows, err := s.db.Query(`SELECT plan_id, line_id, category, description, budgeted, actual, forecast, notes, override
		FROM cost_lines ORDER BY plan_id, position`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var pid string
		var l model.CostLine
		var override int
		if err := rows.Scan(&pid, &l.ID, &l.Category, &l.Description, &l.Budgeted, &l.Actual, &l.Forecast, &l.Notes, &override); err != nil {
			return err
		}
		l.Override = override != 0
		if i, ok := idx[pid]; ok {
			plans[i].Lines = append(plans[i].Lines, l)
		}
	}
	return rows.Err()
}

func (s *Store) loadResources(plans []plan.Plan, idx map[string]int) error {
	rows, err := s.db.Query(`SELECT plan_id, resource_id, user_id, name, role, resource_type, rate_type,
		day_rate, planned_days, monthly_cost, planned_months, cost_line_id, start_month, notes
		FROM resources ORDER BY plan_id, position`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var pid string
		var r model.Resource
		if err := rows.Scan(&pid, &r.ID, &r.UserID, &r.Name, &r.Role, &r.Type, &r.RateType,
			&r.DayRate, &r.PlannedDays, &r.MonthlyCost, &r.PlannedMonths, &r.CostLineID, &r.StartMonth, &r.Notes); err != nil {
			return err
		}
		if i, ok := idx[pid]; ok {
			plans[i].Resources = append(plans[i].Resources, r)
		}
	}
	return rows.Err()
}

func (s *Store) loadEntries(plans []plan.Plan, idx map[string]int) error {
	rows, err := s.db.Query(`SELECT plan_id, line_id, month, budget, actual, forecast, customer_rate, locked
		FROM monthly_entries`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var pid, lineID string
		var mk model.MonthKey
		var e model.MonthlyEntry
		var locked int
		if err := rows.Scan(&pid, &lineID, &mk, &e.Budget, &e.Actual, &e.Forecast, &e.CustomerRate, &locked); err != nil {
			return err
		}
		e.Locked = locked != 0
		if i, ok := idx[pid]; ok {
			plans[i].Monthly.Set(lineID, mk, e)
		}
	}
	return rows.Err()
}

// DeletePlan removes a plan and its file tracking entries.
func (s *Store) DeletePlan(planID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM plans WHERE plan_id = ?", planID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM file_tracker WHERE plan_id = ?", planID); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteFileTracker removes a file tracking entry.
func (s *Store) DeleteFileTracker(filePath string) error {
	_, err := s.db.Exec("DELETE FROM file_tracker WHERE file_path = ?", filePath)
	return err
}

// PlanCount returns the number of stored plans.
func (s *Store) PlanCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM plans").Scan(&count)
	return count, err
}
