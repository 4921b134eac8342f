package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"schoolapi/internal/attendance"
	"schoolapi/internal/auth"
	"schoolapi/internal/class"
	"schoolapi/internal/user"
)

type fakeUserRepo struct {
	users map[string]*user.User
}

func (f *fakeUserRepo) Create(_ context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	stored := u
	f.users[u.ID] = &stored
	return u, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*user.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := f.FindByEmail(ctx, email)
	return u != nil, err
}

type fakeClassRepo struct {
	classes map[string]*class.Class
}

func (f *fakeClassRepo) Create(_ context.Context, c class.Class) (class.Class, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	stored := c
	f.classes[c.ID] = &stored
	return c, nil
}

func (f *fakeClassRepo) FindAll(_ context.Context) ([]class.Class, error) {
	out := make([]class.Class, 0, len(f.classes))
	for _, c := range f.classes {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeClassRepo) FindByID(_ context.Context, id string) (*class.Class, error) {
	c, ok := f.classes[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.StudentIDs = append([]string(nil), c.StudentIDs...)
	return &cp, nil
}

func (f *fakeClassRepo) FindByIDWithDetails(ctx context.Context, id string) (*class.Details, error) {
	c, err := f.FindByID(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}
	d := &class.Details{Class: *c, Teacher: &class.Member{ID: c.TeacherID}}
	for _, sid := range c.StudentIDs {
		d.Students = append(d.Students, class.Member{ID: sid})
	}
	return d, nil
}

func (f *fakeClassRepo) Update(_ context.Context, id string, upd class.Update) (*class.Class, error) {
	c, ok := f.classes[id]
	if !ok {
		return nil, nil
	}
	if upd.ClassName != nil {
		c.ClassName = *upd.ClassName
	}
	if upd.TeacherID != nil {
		c.TeacherID = *upd.TeacherID
	}
	if upd.StudentIDs != nil {
		c.StudentIDs = append([]string(nil), (*upd.StudentIDs)...)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClassRepo) Delete(_ context.Context, id string) (*class.Class, error) {
	c, ok := f.classes[id]
	if !ok {
		return nil, nil
	}
	delete(f.classes, id)
	return c, nil
}

func (f *fakeClassRepo) FindByTeacher(_ context.Context, teacherID string) ([]class.Class, error) {
	var out []class.Class
	for _, c := range f.classes {
		if c.TeacherID == teacherID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeClassRepo) FindByStudent(_ context.Context, studentID string) ([]class.Class, error) {
	var out []class.Class
	for _, c := range f.classes {
		for _, sid := range c.StudentIDs {
			if sid == studentID {
				out = append(out, *c)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeClassRepo) AppendStudent(_ context.Context, classID, studentID string) error {
	f.classes[classID].StudentIDs = append(f.classes[classID].StudentIDs, studentID)
	return nil
}

func (f *fakeClassRepo) RemoveStudent(_ context.Context, classID, studentID string) (*class.Class, error) {
	c, ok := f.classes[classID]
	if !ok {
		return nil, nil
	}
	kept := c.StudentIDs[:0]
	for _, sid := range c.StudentIDs {
		if sid != studentID {
			kept = append(kept, sid)
		}
	}
	c.StudentIDs = kept
	cp := *c
	return &cp, nil
}

type fakeAttendanceRepo struct {
	records []*attendance.Record
}

func (f *fakeAttendanceRepo) Create(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	stored := rec
	f.records = append(f.records, &stored)
	return rec, nil
}

func (f *fakeAttendanceRepo) FindAll(_ context.Context) ([]attendance.Record, error) {
	out := make([]attendance.Record, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeAttendanceRepo) FindByID(_ context.Context, id string) (*attendance.Record, error) {
	for _, r := range f.records {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAttendanceRepo) Update(_ context.Context, id string, upd attendance.Update) (*attendance.Record, error) {
	for _, r := range f.records {
		if r.ID == id {
			if upd.ClassID != nil {
				r.ClassID = *upd.ClassID
			}
			if upd.StudentID != nil {
				r.StudentID = *upd.StudentID
			}
			if upd.Status != nil {
				r.Status = *upd.Status
			}
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAttendanceRepo) Delete(_ context.Context, id string) (*attendance.Record, error) {
	for i, r := range f.records {
		if r.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeAttendanceRepo) FindByClass(_ context.Context, classID string) ([]attendance.Record, error) {
	var out []attendance.Record
	for _, r := range f.records {
		if r.ClassID == classID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) FindByStudent(_ context.Context, studentID string) ([]attendance.Record, error) {
	var out []attendance.Record
	for _, r := range f.records {
		if r.StudentID == studentID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) FindByClassAndStudent(_ context.Context, classID, studentID string) (*attendance.Record, error) {
	for _, r := range f.records {
		if r.ClassID == classID && r.StudentID == studentID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAttendanceRepo) UpdateStatus(_ context.Context, id, status string) (*attendance.Record, error) {
	for _, r := range f.records {
		if r.ID == id {
			r.Status = status
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAttendanceRepo) CountByClass(_ context.Context, classID string) (int, error) {
	n := 0
	for _, r := range f.records {
		if r.ClassID == classID {
			n++
		}
	}
	return n, nil
}

func (f *fakeAttendanceRepo) CountByClassAndStatus(_ context.Context, classID, status string) (int, error) {
	n := 0
	for _, r := range f.records {
		if r.ClassID == classID && r.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeAttendanceRepo) FindByDateRange(_ context.Context, start, end time.Time, classID string) ([]attendance.Record, error) {
	var out []attendance.Record
	for _, r := range f.records {
		if r.CreatedAt.Before(start) || r.CreatedAt.After(end) {
			continue
		}
		if classID != "" && r.ClassID != classID {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

// testServer wires real services over in-memory repositories behind the full
// route tree, authentication gates included.
type testServer struct {
	r       *gin.Engine
	tokens  *auth.Tokens
	users   *fakeUserRepo
	classes *fakeClassRepo
	att     *fakeAttendanceRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	srv := &testServer{
		tokens:  auth.NewTokens("test-secret", time.Hour),
		users:   &fakeUserRepo{users: map[string]*user.User{}},
		classes: &fakeClassRepo{classes: map[string]*class.Class{}},
		att:     &fakeAttendanceRepo{},
	}

	log := zap.NewNop()
	srv.r = gin.New()
	Register(srv.r, Deps{
		Users:      user.NewService(srv.users, srv.tokens, bcrypt.MinCost, log),
		Classes:    class.NewService(srv.classes, log),
		Attendance: attendance.NewService(srv.att, log),
		Tokens:     srv.tokens,
		UserStore:  srv.users,
		Log:        log,
	})
	return srv
}

// seedUser inserts a user directly and returns its id and a valid token.
func (s *testServer) seedUser(t *testing.T, role string) (string, string) {
	t.Helper()
	id := uuid.NewString()
	s.users.users[id] = &user.User{
		ID:    id,
		Name:  "Seed " + role,
		Email: id + "@school.test",
		Role:  role,
	}
	token, err := s.tokens.Issue(id, id+"@school.test", role)
	require.NoError(t, err)
	return id, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
