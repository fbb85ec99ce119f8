package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"triage-assistant/pkg"
)

// ErrNotFound is returned by Get when no record exists for the id.
var ErrNotFound = errors.New("request not found")

const (
	defaultListLimit = 50
	maxListLimit     = 100
	idPrefix         = "REQ"
	// statusPending is stamped on every new submission so list filtering by
	// status has data to act on.
	statusPending = "pending"
)

// Repository persists finalized referral submissions in Postgres. Each
// submission is a single INSERT; there is no read-modify-write, so
// concurrent instances need no coordination beyond the store's per-row
// atomicity.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a Repository from an existing sql.DB. The caller
// is responsible for managing the connection lifecycle.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

// Create stores a new submission. It assigns the time-derived id, stamps
// createdAt and the pending status, and writes NULL for every empty optional
// field. The populated record is returned for the caller to echo back.
func (r *Repository) Create(ctx context.Context, req *pkg.Request) error {
	now := time.Now().UTC()
	req.ID = newRequestID(now)
	req.Status = statusPending
	req.CreatedAt = now.Format(time.RFC3339Nano)

	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO requests
            (id, doctor_name, hospital, location, email, age_group, symptoms,
             urgency, additional_info, specialty, subspecialty, reasoning, status, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		req.ID,
		nullIfEmpty(req.DoctorName),
		nullIfEmpty(req.Hospital),
		nullIfEmpty(req.Location),
		nullIfEmpty(req.Email),
		nullIfEmpty(req.AgeGroup),
		nullIfEmpty(req.Symptoms),
		nullIfEmpty(req.Urgency),
		nullIfEmpty(req.AdditionalInfo),
		nullIfEmpty(req.Specialty),
		nullIfEmpty(req.Subspecialty),
		nullIfEmpty(req.Reasoning),
		req.Status,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

// Get retrieves a single submission by id.
func (r *Repository) Get(ctx context.Context, id string) (*pkg.Request, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id, doctor_name, hospital, location, email, age_group, symptoms,
                urgency, additional_info, specialty, subspecialty, reasoning, status, created_at
         FROM requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

// List returns submissions most-recent-first, optionally filtered by status
// and specialty (equality, combined with AND). The limit defaults to 50 and
// is capped at 100.
func (r *Repository) List(ctx context.Context, status, specialty string, limit int) ([]pkg.Request, error) {
	query := `SELECT id, doctor_name, hospital, location, email, age_group, symptoms,
                     urgency, additional_info, specialty, subspecialty, reasoning, status, created_at
              FROM requests`
	var args []any
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	if specialty != "" {
		args = append(args, specialty)
		if len(args) == 1 {
			query += fmt.Sprintf(" WHERE specialty = $%d", len(args))
		} else {
			query += fmt.Sprintf(" AND specialty = $%d", len(args))
		}
	}
	args = append(args, normalizeLimit(limit))
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []pkg.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("list requests: %w", err)
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

// newRequestID derives an identifier from the submission time: a fixed
// prefix, the second-resolution timestamp, and the microsecond within that
// second. Unique under realistic submission rates; two submissions in the
// same microsecond on different instances would collide, which the current
// deployment accepts.
func newRequestID(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s-%s-%d", idPrefix, t.Format("20060102150405"), t.Nanosecond()/1000)
}

// normalizeLimit applies the default and the hard cap to a caller-supplied
// result limit.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// nullIfEmpty maps an empty string to SQL NULL so optional fields are never
// persisted as empty values.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*pkg.Request, error) {
	var req pkg.Request
	var doctorName, hospital, location, email, ageGroup, symptoms sql.NullString
	var urgency, additionalInfo, specialty, subspecialty, reasoning, status sql.NullString
	var createdAt time.Time
	err := row.Scan(&req.ID, &doctorName, &hospital, &location, &email, &ageGroup,
		&symptoms, &urgency, &additionalInfo, &specialty, &subspecialty, &reasoning,
		&status, &createdAt)
	if err != nil {
		return nil, err
	}
	req.DoctorName = doctorName.String
	req.Hospital = hospital.String
	req.Location = location.String
	req.Email = email.String
	req.AgeGroup = ageGroup.String
	req.Symptoms = symptoms.String
	req.Urgency = urgency.String
	req.AdditionalInfo = additionalInfo.String
	req.Specialty = specialty.String
	req.Subspecialty = subspecialty.String
	req.Reasoning = reasoning.String
	req.Status = status.String
	req.CreatedAt = createdAt.UTC().Format(time.RFC3339Nano)
	return &req, nil
}
