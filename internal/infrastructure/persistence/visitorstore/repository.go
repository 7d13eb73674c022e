// Package visitorstore provides the SQL-backed visitor repository.
package visitorstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/logiclens/gatepass-go/internal/domain/entities/visitor"
	"github.com/logiclens/gatepass-go/internal/domain/repositories"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
)

const slowQueryThreshold = 500 * time.Millisecond

// Repository persists visitor requests in the visitors table.
type Repository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

// NewRepository creates a visitor repository over the given connection.
func NewRepository(db *sql.DB, logger *logging.ChanneledLogger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

var _ repositories.VisitorRepository = (*Repository)(nil)

const visitorColumns = `id, name, email, mobile, national_id, purpose, host_name, host_email,
	photo, visitor_code, qr_code, status, approval_token, token_expires_at,
	expires_at, decision_at, approved_by, created_at, updated_at`

// Create inserts a new visitor request.
func (r *Repository) Create(ctx context.Context, req *visitor.Request) error {
	start := time.Now()

	query := fmt.Sprintf(`INSERT INTO visitors (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, visitorColumns)

	_, err := r.db.ExecContext(ctx, query,
		req.ID, req.Name, req.Email, req.Mobile, req.NationalID, req.Purpose,
		req.HostName, req.HostEmail, req.Photo, req.VisitorCode, req.QRCode,
		string(req.Status), req.ApprovalToken, formatTime(req.TokenExpiresAt),
		formatTime(req.ExpiresAt), formatNullableTime(req.DecisionAt), req.ApprovedBy,
		formatTime(req.CreatedAt), formatTime(req.UpdatedAt),
	)
	if err != nil {
		r.logger.Database().Error("Failed to insert visitor", "error", err, "visitorId", req.ID)
		return fmt.Errorf("failed to insert visitor: %w", err)
	}

	r.observe("INSERT visitors", start, req.ID)
	return nil
}

// FindByID loads a visitor request by record id.
func (r *Repository) FindByID(ctx context.Context, id string) (*visitor.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM visitors WHERE id = ?`, visitorColumns)
	return r.findOne(ctx, query, id, visitor.ErrNotFound)
}

// FindByToken loads a visitor request by decision token.
func (r *Repository) FindByToken(ctx context.Context, token string) (*visitor.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM visitors WHERE approval_token = ?`, visitorColumns)
	return r.findOne(ctx, query, token, visitor.ErrTokenNotFound)
}

// CodeExists reports whether a visitor code is already taken.
func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM visitors WHERE visitor_code = ?`, code).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check visitor code: %w", err)
	}
	return true, nil
}

// ConditionalUpdateStatus applies a status transition only when the stored
// status still matches expected. The WHERE clause makes the check-and-set a
// single atomic statement, so concurrent decide/expire calls cannot both win.
func (r *Repository) ConditionalUpdateStatus(ctx context.Context, id string, expected, next visitor.Status, fields *repositories.DecisionFields) (bool, error) {
	start := time.Now()

	decisionAt := sql.NullString{}
	approvedBy := ""
	updatedAt := time.Now().UTC()
	if fields != nil {
		decisionAt = sql.NullString{String: formatTime(fields.DecisionAt), Valid: true}
		approvedBy = fields.ApprovedBy
		updatedAt = fields.DecisionAt
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE visitors
		 SET status = ?, decision_at = ?, approved_by = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(next), decisionAt, approvedBy, formatTime(updatedAt),
		id, string(expected),
	)
	if err != nil {
		r.logger.Database().Error("Failed to update visitor status", "error", err, "visitorId", id)
		return false, fmt.Errorf("failed to update visitor status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	r.observe("UPDATE visitors SET status", start, id)
	return affected == 1, nil
}

// ListAll returns every visitor request, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]*visitor.Request, error) {
	start := time.Now()

	query := fmt.Sprintf(`SELECT %s FROM visitors ORDER BY created_at DESC`, visitorColumns)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list visitors: %w", err)
	}
	defer rows.Close()

	var out []*visitor.Request
	for rows.Next() {
		req, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visitors: %w", err)
	}

	r.observe("SELECT visitors ORDER BY created_at", start, "all")
	return out, nil
}

// ListOverduePending returns ids of pending records past their expiry.
func (r *Repository) ListOverduePending(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM visitors WHERE status = ? AND expires_at < ?`,
		string(visitor.StatusPending), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue visitors: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan overdue visitor id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) findOne(ctx context.Context, query, arg string, missing error) (*visitor.Request, error) {
	start := time.Now()

	row := r.db.QueryRowContext(ctx, query, arg)
	req, err := scanVisitor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, missing
	}
	if err != nil {
		return nil, err
	}

	r.observe(strings.SplitN(query, "WHERE", 2)[0], start, req.ID)
	return req, nil
}

func (r *Repository) observe(query string, start time.Time, subject string) {
	if d := time.Since(start); d > slowQueryThreshold {
		r.logger.LogSlowQuery(query, d, subject)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVisitor(row scanner) (*visitor.Request, error) {
	var (
		req                       visitor.Request
		status                    string
		tokenExpiresAt, expiresAt string
		decisionAt                sql.NullString
		createdAt, updatedAt      string
	)

	err := row.Scan(
		&req.ID, &req.Name, &req.Email, &req.Mobile, &req.NationalID, &req.Purpose,
		&req.HostName, &req.HostEmail, &req.Photo, &req.VisitorCode, &req.QRCode,
		&status, &req.ApprovalToken, &tokenExpiresAt,
		&expiresAt, &decisionAt, &req.ApprovedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Status = visitor.Status(status)
	if req.TokenExpiresAt, err = parseTime(tokenExpiresAt); err != nil {
		return nil, err
	}
	if req.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if req.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if req.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if decisionAt.Valid && decisionAt.String != "" {
		t, err := parseTime(decisionAt.String)
		if err != nil {
			return nil, err
		}
		req.DecisionAt = &t
	}

	return &req, nil
}

// Timestamps are stored as fixed-width UTC RFC3339 text so the same schema
// works under both the sqlite3 and libsql drivers and string comparison
// matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func formatNullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}
