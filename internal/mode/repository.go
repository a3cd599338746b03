package mode

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for mode and execution persistence.
// This abstraction allows for different implementations (SQLite, mock)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a mode by ID.
	// Returns ErrModeNotFound if the mode does not exist.
	GetByID(ctx context.Context, id string) (*Mode, error)

	// List retrieves all modes ordered by display_order then name.
	// When enabledOnly is true, disabled modes are excluded.
	List(ctx context.Context, enabledOnly bool) ([]Mode, error)

	// GetActive returns the currently active mode, or nil when none is.
	GetActive(ctx context.Context) (*Mode, error)

	// Create inserts a new mode.
	// Returns ErrModeExists on a duplicate ID or name.
	Create(ctx context.Context, m *Mode) error

	// Update modifies an existing mode.
	// Returns ErrModeNotFound if the mode does not exist.
	Update(ctx context.Context, m *Mode) error

	// Delete removes a mode by ID.
	// Returns ErrModeNotFound if the mode does not exist.
	Delete(ctx context.Context, id string) error

	// ClearActive clears the active flag on every mode in one statement.
	ClearActive(ctx context.Context) error

	// SetActive marks one mode active and stamps last_activated.
	// Returns ErrModeNotFound if the mode does not exist.
	SetActive(ctx context.Context, id string, at time.Time) error

	// CreateExecution persists one activation record.
	CreateExecution(ctx context.Context, e *Execution) error

	// ListExecutions returns activation history, newest first.
	// An empty modeID returns history across all modes.
	ListExecutions(ctx context.Context, modeID string, limit int) ([]Execution, error)
}

// modeColumns is the canonical column list shared by every SELECT so
// scans stay aligned with queries.
const modeColumns = `id, name, label, description, icon, color, actions, enabled, active, display_order, last_activated, created_at, updated_at`

const executionColumns = `id, mode_id, mode_name, triggered_by, succeeded_count, failed_count, total_count, errors, started_at`

// defaultExecutionLimit caps history queries when the caller passes no
// explicit limit.
const defaultExecutionLimit = 50

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves a mode by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Mode, error) {
	query := `SELECT ` + modeColumns + ` FROM modes WHERE id = ?`

	m, err := scanModeRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrModeNotFound
		}
		return nil, fmt.Errorf("querying mode by id: %w", err)
	}
	return m, nil
}

// List retrieves all modes ordered by display_order then name.
func (r *SQLiteRepository) List(ctx context.Context, enabledOnly bool) ([]Mode, error) {
	query := `SELECT ` + modeColumns + ` FROM modes`
	if enabledOnly {
		query += ` WHERE enabled = 1`
	}
	query += ` ORDER BY display_order, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying modes: %w", err)
	}
	defer rows.Close()

	var modes []Mode
	for rows.Next() {
		m, err := scanModeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning mode: %w", err)
		}
		modes = append(modes, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating modes: %w", err)
	}
	return modes, nil
}

// GetActive returns the currently active mode, or nil when none is.
func (r *SQLiteRepository) GetActive(ctx context.Context) (*Mode, error) {
	query := `SELECT ` + modeColumns + ` FROM modes WHERE active = 1 LIMIT 1`

	m, err := scanModeRow(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying active mode: %w", err)
	}
	return m, nil
}

// Create inserts a new mode.
func (r *SQLiteRepository) Create(ctx context.Context, m *Mode) error {
	actionsJSON, err := json.Marshal(m.Actions)
	if err != nil {
		return fmt.Errorf("marshalling actions: %w", err)
	}

	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	query := `
		INSERT INTO modes (
			id, name, label, description, icon, color, actions,
			enabled, active, display_order, last_activated, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		m.ID,
		m.Name,
		m.Label,
		m.Description,
		m.Icon,
		m.Color,
		string(actionsJSON),
		boolToInt(m.Enabled),
		boolToInt(m.Active),
		m.DisplayOrder,
		nullableTime(m.LastActivated),
		m.CreatedAt.Format(time.RFC3339),
		m.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrModeExists
		}
		return fmt.Errorf("inserting mode: %w", err)
	}
	return nil
}

// Update modifies an existing mode.
func (r *SQLiteRepository) Update(ctx context.Context, m *Mode) error {
	actionsJSON, err := json.Marshal(m.Actions)
	if err != nil {
		return fmt.Errorf("marshalling actions: %w", err)
	}

	m.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE modes SET
			name = ?, label = ?, description = ?, icon = ?, color = ?,
			actions = ?, enabled = ?, display_order = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		m.Name,
		m.Label,
		m.Description,
		m.Icon,
		m.Color,
		string(actionsJSON),
		boolToInt(m.Enabled),
		m.DisplayOrder,
		m.UpdatedAt.Format(time.RFC3339),
		m.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrModeExists
		}
		return fmt.Errorf("updating mode: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrModeNotFound
	}
	return nil
}

// Delete removes a mode by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM modes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting mode: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrModeNotFound
	}
	return nil
}

// ClearActive clears the active flag on every mode.
// One statement so two concurrent activations can never both observe a
// half-cleared table.
func (r *SQLiteRepository) ClearActive(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE modes SET active = 0 WHERE active = 1`); err != nil {
		return fmt.Errorf("clearing active modes: %w", err)
	}
	return nil
}

// SetActive marks one mode active and stamps last_activated.
func (r *SQLiteRepository) SetActive(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE modes SET active = 1, last_activated = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("marking mode active: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking activation result: %w", err)
	}
	if affected == 0 {
		return ErrModeNotFound
	}
	return nil
}

// CreateExecution persists one activation record.
func (r *SQLiteRepository) CreateExecution(ctx context.Context, e *Execution) error {
	errorsJSON, err := marshalErrors(e.PerActionErrors)
	if err != nil {
		return fmt.Errorf("marshalling errors: %w", err)
	}

	query := `
		INSERT INTO mode_executions (
			id, mode_id, mode_name, triggered_by,
			succeeded_count, failed_count, total_count, errors, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		e.ID,
		e.ModeID,
		e.ModeName,
		e.TriggeredBy,
		e.SucceededCount,
		e.FailedCount,
		e.TotalCount,
		errorsJSON,
		e.StartedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting execution: %w", err)
	}
	return nil
}

// ListExecutions returns activation history, newest first.
func (r *SQLiteRepository) ListExecutions(ctx context.Context, modeID string, limit int) ([]Execution, error) {
	if limit <= 0 {
		limit = defaultExecutionLimit
	}

	query := `SELECT ` + executionColumns + ` FROM mode_executions`
	args := []any{}
	if modeID != "" {
		query += ` WHERE mode_id = ?`
		args = append(args, modeID)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying executions: %w", err)
	}
	defer rows.Close()

	var executions []Execution
	for rows.Next() {
		e, err := scanExecutionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning execution: %w", err)
		}
		executions = append(executions, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating executions: %w", err)
	}
	return executions, nil
}

// ─── Row Scanning Helpers ───────────────────────────────────────────────────

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanModeRow(scanner rowScanner) (*Mode, error) {
	var m Mode
	var label, description, icon, color, lastActivated sql.NullString
	var actionsJSON string
	var enabled, active int
	var createdAt, updatedAt string

	err := scanner.Scan(
		&m.ID,
		&m.Name,
		&label,
		&description,
		&icon,
		&color,
		&actionsJSON,
		&enabled,
		&active,
		&m.DisplayOrder,
		&lastActivated,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Label = label.String
	m.Description = description.String
	m.Icon = icon.String
	m.Color = color.String
	m.Enabled = enabled != 0
	m.Active = active != 0

	if lastActivated.Valid {
		if t, parseErr := time.Parse(time.RFC3339, lastActivated.String); parseErr == nil {
			m.LastActivated = &t
		}
	}
	if t, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
		m.CreatedAt = t
	}
	if t, parseErr := time.Parse(time.RFC3339, updatedAt); parseErr == nil {
		m.UpdatedAt = t
	}

	if actionsJSON != "" && actionsJSON != "[]" {
		if jsonErr := json.Unmarshal([]byte(actionsJSON), &m.Actions); jsonErr != nil {
			return nil, fmt.Errorf("unmarshalling actions: %w", jsonErr)
		}
	}
	if m.Actions == nil {
		m.Actions = []Action{}
	}

	return &m, nil
}

func scanExecutionRow(scanner rowScanner) (*Execution, error) {
	var e Execution
	var triggeredBy, errorsJSON sql.NullString
	var startedAt string

	err := scanner.Scan(
		&e.ID,
		&e.ModeID,
		&e.ModeName,
		&triggeredBy,
		&e.SucceededCount,
		&e.FailedCount,
		&e.TotalCount,
		&errorsJSON,
		&startedAt,
	)
	if err != nil {
		return nil, err
	}

	e.TriggeredBy = triggeredBy.String
	if t, parseErr := time.Parse(time.RFC3339, startedAt); parseErr == nil {
		e.StartedAt = t
	}

	if errorsJSON.Valid && errorsJSON.String != "" && errorsJSON.String != "null" {
		if jsonErr := json.Unmarshal([]byte(errorsJSON.String), &e.PerActionErrors); jsonErr != nil {
			return nil, fmt.Errorf("unmarshalling errors: %w", jsonErr)
		}
	}

	return &e, nil
}

// ─── SQL Helpers ────────────────────────────────────────────────────────────

func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func marshalErrors(errs []string) (sql.NullString, error) {
	if len(errs) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(errs)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
