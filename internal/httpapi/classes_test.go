package httpapi

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createClass(t *testing.T, srv *testServer, token, teacherID string, studentIDs ...string) string {
	t.Helper()
	if studentIDs == nil {
		studentIDs = []string{}
	}
	w := srv.do(t, http.MethodPost, "/api/v1/classes", token, map[string]any{
		"className":  "Math 101",
		"teacherId":  teacherID,
		"studentIds": studentIDs,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	env := decodeEnvelope(t, w)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	id, ok := data["id"].(string)
	require.True(t, ok)
	return id
}

func TestCreateClassEndpoint(t *testing.T) {
	srv := newTestServer(t)
	teacherID, token := srv.seedUser(t, "teacher")

	w := srv.do(t, http.MethodPost, "/api/v1/classes", token, map[string]any{
		"className": "Math 101",
		"teacherId": teacherID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, "Class created successfully", env.Message)

	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Math 101", data["className"])
	assert.Equal(t, teacherID, data["teacherId"])
}

func TestCreateClassEndpointStudentForbidden(t *testing.T) {
	srv := newTestServer(t)
	id, token := srv.seedUser(t, "student")

	w := srv.do(t, http.MethodPost, "/api/v1/classes", token, map[string]any{
		"className": "Math 101",
		"teacherId": id,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Insufficient permissions", decodeEnvelope(t, w).Message)
}

func TestCreateClassEndpointBadTeacherID(t *testing.T) {
	srv := newTestServer(t)
	_, token := srv.seedUser(t, "teacher")

	w := srv.do(t, http.MethodPost, "/api/v1/classes", token, map[string]any{
		"className": "Math 101",
		"teacherId": "not-a-uuid",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid ID format", decodeEnvelope(t, w).Message)
}

func TestListClassesEndpoint(t *testing.T) {
	srv := newTestServer(t)
	teacherID, token := srv.seedUser(t, "teacher")

	// Students may read the class list.
	_, studentToken := srv.seedUser(t, "student")

	w := srv.do(t, http.MethodGet, "/api/v1/classes", studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Count)
	assert.Equal(t, 0, *env.Count)
	assert.Equal(t, []any{}, env.Data)

	createClass(t, srv, token, teacherID)

	w = srv.do(t, http.MethodGet, "/api/v1/classes", studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env = decodeEnvelope(t, w)
	assert.Equal(t, "Classes retrieved successfully", env.Message)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)
}

func TestGetClassEndpointNotFound(t *testing.T) {
	srv := newTestServer(t)
	_, token := srv.seedUser(t, "teacher")

	w := srv.do(t, http.MethodGet, "/api/v1/classes/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Class not found", decodeEnvelope(t, w).Message)
}

func TestGetClassDetailsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	teacherID, token := srv.seedUser(t, "teacher")
	studentID, _ := srv.seedUser(t, "student")
	classID := createClass(t, srv, token, teacherID, studentID)

	w := srv.do(t, http.MethodGet, "/api/v1/classes/"+classID+"/details", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	teacher, ok := data["teacher"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, teacherID, teacher["id"])
	students, ok := data["students"].([]any)
	require.True(t, ok)
	assert.Len(t, students, 1)
}

func TestUpdateClassEndpoint(t *testing.T) {
	srv := newTestServer(t)
	teacherID, token := srv.seedUser(t, "teacher")
	classID := createClass(t, srv, token, teacherID)

	w := srv.do(t, http.MethodPut, "/api/v1/classes/"+classID, token, map[string]any{
		"className": "Math 102",
	})
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	assert.Equal(t, "Class updated successfully", env.Message)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Math 102", data["className"])
	assert.Equal(t, teacherID, data["teacherId"], "unset fields unchanged")
}

func TestDeleteClassEndpoint(t *testing.T) {
	srv := newTestServer(t)
	teacherID, token := srv.seedUser(t, "teacher")
	classID := createClass(t, srv, token, teacherID)

	w := srv.do(t, http.MethodDelete, "/api/v1/classes/"+classID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Class deleted successfully", decodeEnvelope(t, w).Message)

	w = srv.do(t, http.MethodGet, "/api/v1/classes/"+classID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddAndRemoveStudentEndpoints(t *testing.T) {
	srv := newTestServer(t)
	teacherID, token := srv.seedUser(t, "teacher")
	studentID, _ := srv.seedUser(t, "student")
	classID := createClass(t, srv, token, teacherID)

	w := srv.do(t, http.MethodPost, "/api/v1/classes/"+classID+"/students", token, map[string]any{
		"studentId": studentID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "Student added to class successfully", env.Message)

	// Adding again succeeds without duplicating the membership.
	w = srv.do(t, http.MethodPost, "/api/v1/classes/"+classID+"/students", token, map[string]any{
		"studentId": studentID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	data, ok := decodeEnvelope(t, w).Data.(map[string]any)
	require.True(t, ok)
	ids, ok := data["studentIds"].([]any)
	require.True(t, ok)
	assert.Len(t, ids, 1)

	w = srv.do(t, http.MethodDelete, "/api/v1/classes/"+classID+"/students/"+studentID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env = decodeEnvelope(t, w)
	assert.Equal(t, "Student removed from class successfully", env.Message)
	data, ok = env.Data.(map[string]any)
	require.True(t, ok)
	assert.Empty(t, data["studentIds"])
}

func TestListClassesByTeacherEndpoint(t *testing.T) {
	srv := newTestServer(t)
	teacherID, token := srv.seedUser(t, "teacher")
	otherTeacherID, otherToken := srv.seedUser(t, "teacher")
	createClass(t, srv, token, teacherID)
	createClass(t, srv, otherToken, otherTeacherID)

	w := srv.do(t, http.MethodGet, "/api/v1/classes/teacher/"+teacherID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)
}

func TestListClassesByStudentEndpoint(t *testing.T) {
	srv := newTestServer(t)
	teacherID, token := srv.seedUser(t, "teacher")
	studentID, studentToken := srv.seedUser(t, "student")
	createClass(t, srv, token, teacherID, studentID)
	createClass(t, srv, token, teacherID)

	w := srv.do(t, http.MethodGet, "/api/v1/classes/student/"+studentID, studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)
}
