package class

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"schoolapi/internal/apperr"
)

// Class is a group of students taught by one teacher.
type Class struct {
	ID         string    `json:"id"`
	ClassName  string    `json:"className"`
	TeacherID  string    `json:"teacherId"`
	StudentIDs []string  `json:"studentIds"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Member is a user reference resolved to its public fields, used when a class
// is returned with populated teacher/student details.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Details is a class with teacher and student references resolved.
type Details struct {
	Class
	Teacher  *Member  `json:"teacher"`
	Students []Member `json:"students"`
}

// Update carries partial class updates; nil fields are left unchanged.
type Update struct {
	ClassName  *string
	TeacherID  *string
	StudentIDs *[]string
}

// Repository persists classes and their membership sets.
type Repository interface {
	Create(ctx context.Context, c Class) (Class, error)
	FindAll(ctx context.Context) ([]Class, error)
	FindByID(ctx context.Context, id string) (*Class, error)
	FindByIDWithDetails(ctx context.Context, id string) (*Details, error)
	Update(ctx context.Context, id string, upd Update) (*Class, error)
	Delete(ctx context.Context, id string) (*Class, error)
	FindByTeacher(ctx context.Context, teacherID string) ([]Class, error)
	FindByStudent(ctx context.Context, studentID string) ([]Class, error)
	AppendStudent(ctx context.Context, classID, studentID string) error
	RemoveStudent(ctx context.Context, classID, studentID string) (*Class, error)
}

// Service implements class CRUD and membership mutation.
type Service struct {
	repo Repository
	log  *zap.Logger
}

// NewService creates a class service.
func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Create stores a new class.
func (s *Service) Create(ctx context.Context, className, teacherID string, studentIDs []string) (Class, error) {
	if err := validateID(teacherID); err != nil {
		return Class{}, err
	}
	for _, id := range studentIDs {
		if err := validateID(id); err != nil {
			return Class{}, err
		}
	}
	s.log.Info("creating class", zap.String("class_name", className))
	created, err := s.repo.Create(ctx, Class{
		ClassName:  className,
		TeacherID:  teacherID,
		StudentIDs: studentIDs,
	})
	if err != nil {
		return Class{}, err
	}
	s.log.Info("class created", zap.String("class_id", created.ID))
	return created, nil
}

// FindAll returns every class.
func (s *Service) FindAll(ctx context.Context) ([]Class, error) {
	return s.repo.FindAll(ctx)
}

// FindByID returns one class.
func (s *Service) FindByID(ctx context.Context, id string) (*Class, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("Class not found")
	}
	return c, nil
}

// FindByIDWithDetails returns a class with teacher and students populated.
func (s *Service) FindByIDWithDetails(ctx context.Context, id string) (*Details, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	d, err := s.repo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound("Class not found")
	}
	return d, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id string, upd Update) (*Class, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	s.log.Info("updating class", zap.String("class_id", id))
	c, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if c == nil {
		s.log.Warn("class not found for update", zap.String("class_id", id))
		return nil, apperr.NotFound("Class not found")
	}
	return c, nil
}

// Delete removes a class and returns the deleted record.
func (s *Service) Delete(ctx context.Context, id string) (*Class, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	s.log.Info("deleting class", zap.String("class_id", id))
	c, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		s.log.Warn("class not found for deletion", zap.String("class_id", id))
		return nil, apperr.NotFound("Class not found")
	}
	return c, nil
}

// FindByTeacher returns all classes taught by a teacher.
func (s *Service) FindByTeacher(ctx context.Context, teacherID string) ([]Class, error) {
	if err := validateID(teacherID); err != nil {
		return nil, err
	}
	return s.repo.FindByTeacher(ctx, teacherID)
}

// FindByStudent returns all classes a student is enrolled in.
func (s *Service) FindByStudent(ctx context.Context, studentID string) ([]Class, error) {
	if err := validateID(studentID); err != nil {
		return nil, err
	}
	return s.repo.FindByStudent(ctx, studentID)
}

// AddStudent enrolls a student. Adding an already-enrolled student is a
// logged no-op, not an error. The check-then-append sequence is not atomic;
// the membership primary key makes a concurrent duplicate impossible anyway.
func (s *Service) AddStudent(ctx context.Context, classID, studentID string) (*Class, error) {
	if err := validateID(classID); err != nil {
		return nil, err
	}
	if err := validateID(studentID); err != nil {
		return nil, err
	}

	c, err := s.repo.FindByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("Class not found")
	}

	for _, id := range c.StudentIDs {
		if id == studentID {
			s.log.Warn("student already enrolled",
				zap.String("student_id", studentID),
				zap.String("class_id", classID),
			)
			return c, nil
		}
	}

	if err := s.repo.AppendStudent(ctx, classID, studentID); err != nil {
		return nil, err
	}
	c.StudentIDs = append(c.StudentIDs, studentID)
	return c, nil
}

// RemoveStudent unenrolls a student via a single conditional delete. Removing
// a non-member leaves the class unchanged.
func (s *Service) RemoveStudent(ctx context.Context, classID, studentID string) (*Class, error) {
	if err := validateID(classID); err != nil {
		return nil, err
	}
	if err := validateID(studentID); err != nil {
		return nil, err
	}
	c, err := s.repo.RemoveStudent(ctx, classID, studentID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("Class not found")
	}
	return c, nil
}

// IsStudentEnrolled reports membership without failing on unknown classes.
func (s *Service) IsStudentEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	c, err := s.repo.FindByID(ctx, classID)
	if err != nil || c == nil {
		return false, err
	}
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.BadRequest("Invalid ID format")
	}
	return nil
}
