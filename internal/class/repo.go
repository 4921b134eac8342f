package class

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// SQLRepository persists classes in Postgres. Membership lives in a
// class_students join table keyed by (class_id, student_id).
type SQLRepository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// Create inserts a class and its initial membership in one transaction.
func (r *SQLRepository) Create(ctx context.Context, c Class) (Class, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Class{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO classes (id, class_name, teacher_id)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`, c.ID, c.ClassName, c.TeacherID)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return Class{}, err
	}

	for _, studentID := range c.StudentIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO class_students (class_id, student_id)
			VALUES ($1, $2)
			ON CONFLICT (class_id, student_id) DO NOTHING
		`, c.ID, studentID); err != nil {
			return Class{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Class{}, err
	}
	if c.StudentIDs == nil {
		c.StudentIDs = []string{}
	}
	return c, nil
}

// FindAll returns every class with membership populated.
func (r *SQLRepository) FindAll(ctx context.Context) ([]Class, error) {
	classes, err := r.queryClasses(ctx, `
		SELECT id, class_name, teacher_id, created_at, updated_at
		FROM classes ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return r.populateMembers(ctx, classes)
}

// FindByID returns a class with membership, or nil when absent.
func (r *SQLRepository) FindByID(ctx context.Context, id string) (*Class, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, class_name, teacher_id, created_at, updated_at
		FROM classes WHERE id = $1
	`, id)
	var c Class
	err := row.Scan(&c.ID, &c.ClassName, &c.TeacherID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.StudentIDs, err = r.memberIDs(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByIDWithDetails resolves teacher and student references to user fields.
// Dangling references are tolerated and simply left out.
func (r *SQLRepository) FindByIDWithDetails(ctx context.Context, id string) (*Details, error) {
	c, err := r.FindByID(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}

	d := Details{Class: *c, Students: []Member{}}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, role FROM users WHERE id = $1
	`, c.TeacherID)
	var teacher Member
	if err := row.Scan(&teacher.ID, &teacher.Name, &teacher.Email, &teacher.Role); err == nil {
		d.Teacher = &teacher
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.email, u.role
		FROM class_students cs
		JOIN users u ON u.id = cs.student_id
		WHERE cs.class_id = $1
		ORDER BY u.name
	`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Role); err != nil {
			return nil, err
		}
		d.Students = append(d.Students, m)
	}
	return &d, rows.Err()
}

// Update applies non-nil fields; a provided StudentIDs slice replaces the
// whole membership set. Returns nil when the class does not exist.
func (r *SQLRepository) Update(ctx context.Context, id string, upd Update) (*Class, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE classes
		SET class_name = COALESCE($2, class_name),
		    teacher_id = COALESCE($3, teacher_id),
		    updated_at = NOW()
		WHERE id = $1
	`, id, upd.ClassName, upd.TeacherID)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}

	if upd.StudentIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM class_students WHERE class_id = $1`, id); err != nil {
			return nil, err
		}
		for _, studentID := range *upd.StudentIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO class_students (class_id, student_id)
				VALUES ($1, $2)
				ON CONFLICT (class_id, student_id) DO NOTHING
			`, id, studentID); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Delete removes a class, returning the deleted record or nil.
func (r *SQLRepository) Delete(ctx context.Context, id string) (*Class, error) {
	c, err := r.FindByID(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return c, nil
}

// FindByTeacher returns classes taught by the teacher.
func (r *SQLRepository) FindByTeacher(ctx context.Context, teacherID string) ([]Class, error) {
	classes, err := r.queryClasses(ctx, `
		SELECT id, class_name, teacher_id, created_at, updated_at
		FROM classes WHERE teacher_id = $1 ORDER BY created_at DESC
	`, teacherID)
	if err != nil {
		return nil, err
	}
	return r.populateMembers(ctx, classes)
}

// FindByStudent returns classes the student is enrolled in.
func (r *SQLRepository) FindByStudent(ctx context.Context, studentID string) ([]Class, error) {
	classes, err := r.queryClasses(ctx, `
		SELECT c.id, c.class_name, c.teacher_id, c.created_at, c.updated_at
		FROM classes c
		JOIN class_students cs ON cs.class_id = c.id
		WHERE cs.student_id = $1
		ORDER BY c.created_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	return r.populateMembers(ctx, classes)
}

// AppendStudent records membership. The service checks for duplicates first;
// the primary key backstops concurrent adds.
func (r *SQLRepository) AppendStudent(ctx context.Context, classID, studentID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO class_students (class_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (class_id, student_id) DO NOTHING
	`, classID, studentID)
	return err
}

// RemoveStudent deletes the membership row in one statement, then returns the
// class. Removing a non-member is a no-op.
func (r *SQLRepository) RemoveStudent(ctx context.Context, classID, studentID string) (*Class, error) {
	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM class_students WHERE class_id = $1 AND student_id = $2
	`, classID, studentID); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, classID)
}

func (r *SQLRepository) queryClasses(ctx context.Context, query string, args ...any) ([]Class, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []Class
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.ClassName, &c.TeacherID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (r *SQLRepository) populateMembers(ctx context.Context, classes []Class) ([]Class, error) {
	for i := range classes {
		ids, err := r.memberIDs(ctx, classes[i].ID)
		if err != nil {
			return nil, err
		}
		classes[i].StudentIDs = ids
	}
	return classes, nil
}

func (r *SQLRepository) memberIDs(ctx context.Context, classID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT student_id FROM class_students WHERE class_id = $1 ORDER BY added_at
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ Repository = (*SQLRepository)(nil)
