package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-records-api/internal/apperrors"
	"github.com/noah-isme/student-records-api/internal/models"
)

func TestGradeRepositoryCreateRejectsOutOfRange(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGradeRepository(db)
	seedStudent(t, db, "S1", "ada@example.com")
	seedCourse(t, db, "CS101", "CS")

	for _, value := range []int{-1, 101} {
		grade := models.Grade{StudentID: "S1", CourseCode: "CS101", GradeValue: value, Semester: "Fall 2024", GradeDate: date(t, "2024-12-15")}
		err := repo.Create(context.Background(), &grade)
		require.ErrorIs(t, err, apperrors.ErrConstraintViolation)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		require.Equal(t, apperrors.ConstraintRange, appErr.Constraint)
		require.Equal(t, "grade_value", appErr.Field)
	}

	var count int64
	require.NoError(t, db.Model(&models.Grade{}).Count(&count).Error)
	require.Zero(t, count, "no row may be written for an out-of-range grade")

	for _, value := range []int{0, 100} {
		grade := models.Grade{StudentID: "S1", CourseCode: "CS101", GradeValue: value, Semester: "Fall 2024", GradeDate: date(t, "2024-12-15")}
		require.NoError(t, repo.Create(context.Background(), &grade))
		require.NotZero(t, grade.ID)
	}
}

func TestGradeRepositoryCreateRequiresReferences(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGradeRepository(db)
	seedStudent(t, db, "S1", "ada@example.com")

	grade := models.Grade{StudentID: "S1", CourseCode: "NOPE", GradeValue: 70, Semester: "Fall 2024", GradeDate: date(t, "2024-12-15")}
	err := repo.Create(context.Background(), &grade)
	require.ErrorIs(t, err, apperrors.ErrReferentialIntegrity)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, "course_code", appErr.Field)

	grade = models.Grade{StudentID: "S404", CourseCode: "NOPE", GradeValue: 70, Semester: "Fall 2024", GradeDate: date(t, "2024-12-15")}
	err = repo.Create(context.Background(), &grade)
	require.ErrorIs(t, err, apperrors.ErrReferentialIntegrity)
	appErr, _ = apperrors.As(err)
	require.Equal(t, "student_id", appErr.Field)
}

func TestGradeRepositoryListOrdersByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGradeRepository(db)
	seedStudent(t, db, "S1", "ada@example.com")
	seedStudent(t, db, "S2", "grace@example.com")
	seedCourse(t, db, "CS101", "CS")
	seedCourse(t, db, "MA201", "Math")

	inputs := []models.Grade{
		{StudentID: "S1", CourseCode: "MA201", GradeValue: 60, Semester: "Spring 2025", GradeDate: date(t, "2025-05-01")},
		{StudentID: "S2", CourseCode: "CS101", GradeValue: 70, Semester: "Fall 2024", GradeDate: date(t, "2024-12-01")},
		{StudentID: "S1", CourseCode: "CS101", GradeValue: 80, Semester: "Fall 2024", GradeDate: date(t, "2024-12-15")},
	}
	for i := range inputs {
		require.NoError(t, repo.Create(context.Background(), &inputs[i]))
	}

	studentID := "S1"
	grades, err := repo.List(context.Background(), GradeFilter{StudentID: &studentID})
	require.NoError(t, err)
	require.Len(t, grades, 2)
	require.Equal(t, inputs[0].ID, grades[0].ID)
	require.Equal(t, inputs[2].ID, grades[1].ID)

	courseCode := "CS101"
	grades, err = repo.List(context.Background(), GradeFilter{StudentID: &studentID, CourseCode: &courseCode})
	require.NoError(t, err)
	require.Len(t, grades, 1)
	require.Equal(t, 80, grades[0].GradeValue)

	empty := "S404"
	grades, err = repo.List(context.Background(), GradeFilter{StudentID: &empty})
	require.NoError(t, err)
	require.Empty(t, grades)
}

func TestGradeRepositoryUpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGradeRepository(db)
	seedStudent(t, db, "S1", "ada@example.com")
	seedCourse(t, db, "CS101", "CS")

	grade := models.Grade{StudentID: "S1", CourseCode: "CS101", GradeValue: 50, Semester: "Fall 2024", GradeDate: date(t, "2024-12-15")}
	require.NoError(t, repo.Create(context.Background(), &grade))

	updated, err := repo.Update(context.Background(), grade.ID, map[string]interface{}{"grade_value": float64(88)})
	require.NoError(t, err)
	require.Equal(t, 88, updated.GradeValue)
	require.Equal(t, "Fall 2024", updated.Semester)

	_, err = repo.Update(context.Background(), grade.ID, map[string]interface{}{"grade_value": 150})
	require.ErrorIs(t, err, apperrors.ErrConstraintViolation)

	for _, column := range []string{"course_code", "student_id", "id"} {
		_, err = repo.Update(context.Background(), grade.ID, map[string]interface{}{column: "X"})
		require.ErrorIs(t, err, apperrors.ErrConstraintViolation, column)
		appErr, _ := apperrors.As(err)
		require.Equal(t, column, appErr.Field)
	}

	stored, err := repo.GetByID(context.Background(), grade.ID)
	require.NoError(t, err)
	require.Equal(t, 88, stored.GradeValue)
	require.Equal(t, "CS101", stored.CourseCode)

	require.NoError(t, repo.Delete(context.Background(), grade.ID))
	require.ErrorIs(t, repo.Delete(context.Background(), grade.ID), apperrors.ErrNotFound)
}
