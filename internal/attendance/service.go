package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"schoolapi/internal/apperr"
)

// Attendance statuses.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Record is one attendance entry for a (class, student) pair.
type Record struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"classId"`
	StudentID string    `json:"studentId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stats are per-class attendance counts. The three values come from
// independent point-in-time counts, so present+absent is not guaranteed to
// equal total under concurrent writes.
type Stats struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
}

// Update carries partial record updates; nil fields are left unchanged.
type Update struct {
	ClassID   *string
	StudentID *string
	Status    *string
}

// Repository persists attendance records.
type Repository interface {
	Create(ctx context.Context, rec Record) (Record, error)
	FindAll(ctx context.Context) ([]Record, error)
	FindByID(ctx context.Context, id string) (*Record, error)
	Update(ctx context.Context, id string, upd Update) (*Record, error)
	Delete(ctx context.Context, id string) (*Record, error)
	FindByClass(ctx context.Context, classID string) ([]Record, error)
	FindByStudent(ctx context.Context, studentID string) ([]Record, error)
	FindByClassAndStudent(ctx context.Context, classID, studentID string) (*Record, error)
	UpdateStatus(ctx context.Context, id, status string) (*Record, error)
	CountByClass(ctx context.Context, classID string) (int, error)
	CountByClassAndStatus(ctx context.Context, classID, status string) (int, error)
	FindByDateRange(ctx context.Context, start, end time.Time, classID string) ([]Record, error)
}

// Service implements attendance tracking.
type Service struct {
	repo Repository
	log  *zap.Logger
}

// NewService creates an attendance service.
func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Create stores a new record directly, without the one-record-per-pair check
// that Mark performs.
func (s *Service) Create(ctx context.Context, classID, studentID, status string) (Record, error) {
	if err := validateID(classID); err != nil {
		return Record{}, err
	}
	if err := validateID(studentID); err != nil {
		return Record{}, err
	}
	if status == "" {
		status = StatusAbsent
	}
	if err := validateStatus(status); err != nil {
		return Record{}, err
	}
	s.log.Info("creating attendance record",
		zap.String("class_id", classID),
		zap.String("student_id", studentID),
	)
	return s.repo.Create(ctx, Record{ClassID: classID, StudentID: studentID, Status: status})
}

// FindAll returns every record.
func (s *Service) FindAll(ctx context.Context) ([]Record, error) {
	return s.repo.FindAll(ctx)
}

// FindByID returns one record.
func (s *Service) FindByID(ctx context.Context, id string) (*Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.NotFound("Attendance record not found")
	}
	return rec, nil
}

// UpdateRecord applies a partial update.
func (s *Service) UpdateRecord(ctx context.Context, id string, upd Update) (*Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if upd.Status != nil {
		if err := validateStatus(*upd.Status); err != nil {
			return nil, err
		}
	}
	s.log.Info("updating attendance record", zap.String("record_id", id))
	rec, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		s.log.Warn("attendance record not found for update", zap.String("record_id", id))
		return nil, apperr.NotFound("Attendance record not found")
	}
	return rec, nil
}

// Delete removes one record.
func (s *Service) Delete(ctx context.Context, id string) (*Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	s.log.Info("deleting attendance record", zap.String("record_id", id))
	rec, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		s.log.Warn("attendance record not found for deletion", zap.String("record_id", id))
		return nil, apperr.NotFound("Attendance record not found")
	}
	return rec, nil
}

// FindByClass returns a class's records, newest first.
func (s *Service) FindByClass(ctx context.Context, classID string) ([]Record, error) {
	if err := validateID(classID); err != nil {
		return nil, err
	}
	return s.repo.FindByClass(ctx, classID)
}

// FindByStudent returns a student's records, newest first.
func (s *Service) FindByStudent(ctx context.Context, studentID string) ([]Record, error) {
	if err := validateID(studentID); err != nil {
		return nil, err
	}
	return s.repo.FindByStudent(ctx, studentID)
}

// FindByClassAndStudent returns the record for a (class, student) pair.
func (s *Service) FindByClassAndStudent(ctx context.Context, classID, studentID string) (*Record, error) {
	if err := validateID(classID); err != nil {
		return nil, err
	}
	if err := validateID(studentID); err != nil {
		return nil, err
	}
	rec, err := s.repo.FindByClassAndStudent(ctx, classID, studentID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.NotFound("Attendance record not found")
	}
	return rec, nil
}

// Mark upserts the single logical record for a (class, student) pair: an
// existing record has its status replaced, otherwise a new one is created.
// The find-then-branch sequence is not atomic; two concurrent marks for the
// same pair can both create. That race is accepted, not worked around.
func (s *Service) Mark(ctx context.Context, classID, studentID, status string) (Record, error) {
	if err := validateID(classID); err != nil {
		return Record{}, err
	}
	if err := validateID(studentID); err != nil {
		return Record{}, err
	}
	if err := validateStatus(status); err != nil {
		return Record{}, err
	}

	s.log.Info("marking attendance",
		zap.String("class_id", classID),
		zap.String("student_id", studentID),
		zap.String("status", status),
	)

	existing, err := s.repo.FindByClassAndStudent(ctx, classID, studentID)
	if err != nil {
		return Record{}, err
	}

	if existing != nil {
		updated, err := s.repo.UpdateStatus(ctx, existing.ID, status)
		if err != nil {
			return Record{}, err
		}
		if updated == nil {
			// Deleted between find and update; fall through to create.
			return s.repo.Create(ctx, Record{ClassID: classID, StudentID: studentID, Status: status})
		}
		return *updated, nil
	}

	return s.repo.Create(ctx, Record{ClassID: classID, StudentID: studentID, Status: status})
}

// ClassStatistics counts a class's records by status. An unknown class yields
// all zeros rather than an error.
func (s *Service) ClassStatistics(ctx context.Context, classID string) (Stats, error) {
	if err := validateID(classID); err != nil {
		return Stats{}, err
	}

	total, err := s.repo.CountByClass(ctx, classID)
	if err != nil {
		return Stats{}, err
	}
	present, err := s.repo.CountByClassAndStatus(ctx, classID, StatusPresent)
	if err != nil {
		return Stats{}, err
	}
	absent, err := s.repo.CountByClassAndStatus(ctx, classID, StatusAbsent)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Total: total, Present: present, Absent: absent}, nil
}

// FindByDateRange returns records created within [start, end] inclusive,
// newest first. classID narrows the result when non-empty.
func (s *Service) FindByDateRange(ctx context.Context, start, end time.Time, classID string) ([]Record, error) {
	if classID != "" {
		if err := validateID(classID); err != nil {
			return nil, err
		}
	}
	return s.repo.FindByDateRange(ctx, start, end, classID)
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.BadRequest("Invalid ID format")
	}
	return nil
}

func validateStatus(status string) error {
	if status != StatusPresent && status != StatusAbsent {
		return apperr.BadRequest("Status must be 'present' or 'absent'")
	}
	return nil
}
