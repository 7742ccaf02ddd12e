package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/student-records-api/internal/config"
	"github.com/noah-isme/student-records-api/internal/database"
	"github.com/noah-isme/student-records-api/internal/handler"
	"github.com/noah-isme/student-records-api/internal/middleware"
	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/repository"
	"github.com/noah-isme/student-records-api/internal/router"
	"github.com/noah-isme/student-records-api/internal/service"
	"github.com/noah-isme/student-records-api/internal/validation"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Entity  string          `json:"entity"`
		Key     string          `json:"key"`
		Field   string          `json:"field"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func setupRecordsApp(t *testing.T, foreignKeys bool) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	if foreignKeys {
		dsn += "&_foreign_keys=1"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.Migratable()...))

	logger := zerolog.New(io.Discard)
	validate := validation.New()

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), logger)

	app := fiber.New()
	app.Use(middleware.CorrelationID())
	router.Register(app, config.Config{AppName: "Test", AppEnv: "test"}, router.Dependencies{
		StudentHandler:    handler.NewStudentHandler(service.NewStudentService(studentRepo, activityService, validate, logger), logger),
		CourseHandler:     handler.NewCourseHandler(service.NewCourseService(courseRepo, activityService, validate, logger), logger),
		GradeHandler:      handler.NewGradeHandler(service.NewGradeService(gradeRepo, courseRepo, studentRepo, activityService, nil, validate, logger), logger),
		TranscriptHandler: handler.NewTranscriptHandler(service.NewTranscriptService(gradeRepo, courseRepo, studentRepo, logger), logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, logger),
		DatabasePing:      func(ctx context.Context) error { return database.Ping(ctx, db) },
	})

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	return resp, env
}

func seedScenario(t *testing.T, app *fiber.App) {
	t.Helper()

	resp, _ := doJSON(t, app, http.MethodPost, "/api/courses", map[string]interface{}{
		"course_code": "CS101", "name": "Intro to CS", "department": "CS", "credits": 3,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/students", map[string]interface{}{
		"student_id": "S1", "first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com",
		"date_of_birth": "2004-12-10", "enrollment_date": "2023-09-01",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, env := doJSON(t, app, http.MethodPost, "/api/grades", map[string]interface{}{
		"student_id": "S1", "course_code": "CS101", "grade": 91, "semester": "Fall 2024", "date": "2024-12-15",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, env.Message)

	var grade map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &grade))
	require.Equal(t, float64(91), grade["grade"])
	require.Equal(t, "2024-12-15", grade["date"])
	require.NotContains(t, grade, "grade_value")
}

func TestTranscriptScenarioMatchesContract(t *testing.T) {
	app, _ := setupRecordsApp(t, true)
	seedScenario(t, app)

	resp, env := doJSON(t, app, http.MethodGet, "/api/grades/student/S1/transcript?student=required", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Empty(t, resp.Header.Get(handler.HeaderTranscriptPartial))

	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 1)
	require.Equal(t, float64(91), entries[0]["grade_value"])
	require.Equal(t, "Fall 2024", entries[0]["semester"])
	require.Equal(t, "2024-12-15", entries[0]["grade_date"])
	course := entries[0]["course"].(map[string]interface{})
	require.Equal(t, "Intro to CS", course["course_name"])
	require.Equal(t, float64(3), course["credits"])
	student := entries[0]["student"].(map[string]interface{})
	require.Equal(t, "S1", student["student_id"])

	schemaPath, err := filepath.Abs(filepath.Join("testdata", "transcript.schema.json"))
	require.NoError(t, err)
	schema, err := jsonschema.NewCompiler().Compile("file://" + schemaPath)
	require.NoError(t, err)

	var document interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&document))
	require.NoError(t, schema.Validate(document))

	resp, env = doJSON(t, app, http.MethodGet, "/api/students/S1/transcript", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var aliased []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &aliased))
	require.Len(t, aliased, 1)
	require.NotContains(t, aliased[0], "student")
}

func TestTranscriptEmptyAndInvalidOptions(t *testing.T) {
	app, _ := setupRecordsApp(t, true)

	resp, env := doJSON(t, app, http.MethodGet, "/api/grades/student/NOBODY/transcript", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.JSONEq(t, `[]`, string(env.Data))

	resp, env = doJSON(t, app, http.MethodGet, "/api/grades/student/NOBODY/transcript?student=required", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "not_found", env.Error.Code)

	resp, env = doJSON(t, app, http.MethodGet, "/api/grades/student/S1/transcript?sort=grade", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "validation_error", env.Error.Code)
}

func TestTranscriptMarksDanglingCourseAsPartial(t *testing.T) {
	app, db := setupRecordsApp(t, false)
	seedScenario(t, app)

	require.NoError(t, db.Exec("DELETE FROM courses WHERE course_code = ?", "CS101").Error)

	resp, env := doJSON(t, app, http.MethodGet, "/api/grades/student/S1/transcript", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "true", resp.Header.Get(handler.HeaderTranscriptPartial))

	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 1)
	require.NotContains(t, entries[0], "course")
	entryErr := entries[0]["error"].(map[string]interface{})
	require.Equal(t, "referential_integrity", entryErr["code"])
	require.Equal(t, "CS101", entryErr["key"])
}

func TestTranscriptStorageOutageReturnsServiceUnavailable(t *testing.T) {
	app, db := setupRecordsApp(t, true)
	seedScenario(t, app)
	require.NoError(t, database.Close(db))

	resp, env := doJSON(t, app, http.MethodGet, "/api/grades/student/S1/transcript", nil)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
	require.Equal(t, "unavailable", env.Error.Code)
	require.False(t, env.Success)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestErrorStatusMapping(t *testing.T) {
	app, _ := setupRecordsApp(t, true)
	seedScenario(t, app)

	resp, env := doJSON(t, app, http.MethodPost, "/api/grades", map[string]interface{}{
		"student_id": "S1", "course_code": "CS101", "grade": 150, "semester": "Fall 2024", "date": "2024-12-15",
	})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	require.Equal(t, "constraint_violation", env.Error.Code)
	require.Equal(t, "grade", env.Error.Field)

	resp, env = doJSON(t, app, http.MethodPost, "/api/grades", map[string]interface{}{
		"student_id": "S1", "course_code": "MA999", "grade": 50, "semester": "Fall 2024", "date": "2024-12-15",
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.Equal(t, "referential_integrity", env.Error.Code)
	require.Equal(t, "course_code", env.Error.Field)

	resp, env = doJSON(t, app, http.MethodDelete, "/api/courses/CS101", nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.Equal(t, "referential_integrity", env.Error.Code)

	resp, env = doJSON(t, app, http.MethodPost, "/api/students", map[string]interface{}{
		"student_id": "S2", "first_name": "Grace", "last_name": "Hopper", "email": "ada@example.com",
		"date_of_birth": "1906-12-09", "enrollment_date": "2023-09-01",
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.Equal(t, "constraint_violation", env.Error.Code)
	require.Equal(t, "email", env.Error.Field)

	resp, env = doJSON(t, app, http.MethodPost, "/api/students", map[string]interface{}{"student_id": "S3", "date_of_birth": "yesterday"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "validation_error", env.Error.Code)

	resp, env = doJSON(t, app, http.MethodGet, "/api/students/S404", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "student", env.Error.Entity)
	require.Equal(t, "S404", env.Error.Key)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/grades/abc", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGradeUpdateAndListFilters(t *testing.T) {
	app, _ := setupRecordsApp(t, true)
	seedScenario(t, app)

	resp, env := doJSON(t, app, http.MethodPatch, "/api/grades/1", map[string]interface{}{"grade": 95})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)

	var grade map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &grade))
	require.Equal(t, float64(95), grade["grade"])
	require.Equal(t, "Fall 2024", grade["semester"])

	resp, env = doJSON(t, app, http.MethodGet, "/api/grades?student_id=S1&course_code=CS101", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var grades []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &grades))
	require.Len(t, grades, 1)

	resp, env = doJSON(t, app, http.MethodGet, "/api/grades?course_code=MA201", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.JSONEq(t, `[]`, string(env.Data))
}

func TestUpdatesRejectBlankEmailAndKeyChanges(t *testing.T) {
	app, _ := setupRecordsApp(t, true)
	seedScenario(t, app)

	resp, env := doJSON(t, app, http.MethodPatch, "/api/students/S1", map[string]interface{}{"email": ""})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "validation_error", env.Error.Code)

	resp, _ = doJSON(t, app, http.MethodPatch, "/api/grades/1", map[string]interface{}{"student_id": "S2", "grade": 50})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodPut, "/api/grades/1", map[string]interface{}{
		"grade_id": 1, "student_id": "S1", "course_code": "CS101", "grade": 88, "semester": "Fall 2024", "date": "2024-12-15",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)

	resp, env = doJSON(t, app, http.MethodGet, "/api/students/S1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var student map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &student))
	require.Equal(t, "ada@example.com", student["email"])
}

func TestGradeReadsExpandRelations(t *testing.T) {
	app, _ := setupRecordsApp(t, true)
	seedScenario(t, app)

	resp, env := doJSON(t, app, http.MethodGet, "/api/grades/1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var flat map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &flat))
	require.NotContains(t, flat, "student")
	require.NotContains(t, flat, "course")

	resp, env = doJSON(t, app, http.MethodGet, "/api/grades/1?expand=student,course", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)
	var expanded map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &expanded))
	course := expanded["course"].(map[string]interface{})
	require.Equal(t, "Intro to CS", course["course_name"])
	student := expanded["student"].(map[string]interface{})
	require.Equal(t, "Ada", student["first_name"])
	require.Equal(t, float64(91), expanded["grade"])

	resp, env = doJSON(t, app, http.MethodGet, "/api/grades?student_id=S1&expand=course", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listed []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)
	require.Contains(t, listed[0], "course")
	require.NotContains(t, listed[0], "student")

	resp, env = doJSON(t, app, http.MethodGet, "/api/grades?expand=department", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "validation_error", env.Error.Code)
}

func TestActivityLogListsWrites(t *testing.T) {
	app, _ := setupRecordsApp(t, true)
	seedScenario(t, app)

	resp, env := doJSON(t, app, http.MethodGet, "/api/activity?entity_type=grade", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Items []struct {
			Action     string `json:"action"`
			EntityType string `json:"entity_type"`
			EntityKey  string `json:"entity_key"`
		} `json:"items"`
		Pagination struct {
			TotalItems int `json:"total_items"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Equal(t, 1, result.Pagination.TotalItems)
	require.Equal(t, "created", result.Items[0].Action)
	require.Equal(t, "1", result.Items[0].EntityKey)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/activity?page=x", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/activity?since=yesterday", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodGet, "/api/activity?since=2999-01-01T00:00:00Z", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Equal(t, 0, result.Pagination.TotalItems)
}

func TestHealthCheck(t *testing.T) {
	app := fiber.New()
	app.Get("/health", handler.HealthCheck(config.Config{AppName: "Records", AppEnv: "test"}, func(context.Context) error { return nil }))

	resp, env := doJSON(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload handler.HealthResponse
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.Equal(t, "ok", payload.Status)
	require.Equal(t, "ok", payload.Database)
	require.Equal(t, "Records", payload.Service)

	failing := fiber.New()
	failing.Get("/health", handler.HealthCheck(config.Config{}, func(context.Context) error { return errors.New("down") }))
	resp, env = doJSON(t, failing, http.MethodGet, "/health", nil)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	require.False(t, env.Success)
}
