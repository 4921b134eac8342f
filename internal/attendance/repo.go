package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SQLRepository persists attendance records in Postgres.
type SQLRepository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

const recordColumns = `id, class_id, student_id, status, created_at, updated_at`

// Create inserts a new record, assigning an id when absent. Nothing stops two
// records for the same (class, student) pair on this path; only Mark treats
// the pair as a single logical record.
func (r *SQLRepository) Create(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = StatusAbsent
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (id, class_id, student_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, rec.ID, rec.ClassID, rec.StudentID, rec.Status)
	if err := row.Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// FindAll returns every record, newest first.
func (r *SQLRepository) FindAll(ctx context.Context) ([]Record, error) {
	return r.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM attendance ORDER BY created_at DESC
	`)
}

// FindByID returns one record, or nil when absent.
func (r *SQLRepository) FindByID(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM attendance WHERE id = $1
	`, id)
	return scanRecord(row)
}

// Update applies non-nil fields and returns the updated record, or nil when
// the record does not exist.
func (r *SQLRepository) Update(ctx context.Context, id string, upd Update) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE attendance
		SET class_id   = COALESCE($2, class_id),
		    student_id = COALESCE($3, student_id),
		    status     = COALESCE($4, status),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+recordColumns+`
	`, id, upd.ClassID, upd.StudentID, upd.Status)
	return scanRecord(row)
}

// Delete removes one record, returning it or nil.
func (r *SQLRepository) Delete(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		DELETE FROM attendance WHERE id = $1
		RETURNING `+recordColumns+`
	`, id)
	return scanRecord(row)
}

// FindByClass returns a class's records, newest first.
func (r *SQLRepository) FindByClass(ctx context.Context, classID string) ([]Record, error) {
	return r.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM attendance
		WHERE class_id = $1 ORDER BY created_at DESC
	`, classID)
}

// FindByStudent returns a student's records, newest first.
func (r *SQLRepository) FindByStudent(ctx context.Context, studentID string) ([]Record, error) {
	return r.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM attendance
		WHERE student_id = $1 ORDER BY created_at DESC
	`, studentID)
}

// FindByClassAndStudent returns the most recent record for the pair, or nil.
func (r *SQLRepository) FindByClassAndStudent(ctx context.Context, classID, studentID string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM attendance
		WHERE class_id = $1 AND student_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, classID, studentID)
	return scanRecord(row)
}

// UpdateStatus replaces a record's status in place.
func (r *SQLRepository) UpdateStatus(ctx context.Context, id, status string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE attendance
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+recordColumns+`
	`, id, status)
	return scanRecord(row)
}

// CountByClass counts a class's records.
func (r *SQLRepository) CountByClass(ctx context.Context, classID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attendance WHERE class_id = $1
	`, classID).Scan(&count)
	return count, err
}

// CountByClassAndStatus counts a class's records with the given status.
func (r *SQLRepository) CountByClassAndStatus(ctx context.Context, classID, status string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attendance WHERE class_id = $1 AND status = $2
	`, classID, status).Scan(&count)
	return count, err
}

// FindByDateRange returns records created within [start, end] inclusive,
// newest first, optionally narrowed to one class.
func (r *SQLRepository) FindByDateRange(ctx context.Context, start, end time.Time, classID string) ([]Record, error) {
	if classID != "" {
		return r.queryRecords(ctx, `
			SELECT `+recordColumns+` FROM attendance
			WHERE created_at >= $1 AND created_at <= $2 AND class_id = $3
			ORDER BY created_at DESC
		`, start, end, classID)
	}
	return r.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM attendance
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at DESC
	`, start, end)
}

func (r *SQLRepository) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ClassID, &rec.StudentID, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row *sql.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.ClassID, &rec.StudentID, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

var _ Repository = (*SQLRepository)(nil)
