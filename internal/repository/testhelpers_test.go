package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/student-records-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.Migratable()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func date(t *testing.T, value string) datatypes.Date {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return datatypes.Date(parsed)
}

func seedStudent(t *testing.T, db *gorm.DB, id, email string) models.Student {
	t.Helper()
	student := models.Student{
		StudentID:      id,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          email,
		DateOfBirth:    date(t, "2004-12-10"),
		EnrollmentDate: date(t, "2023-09-01"),
	}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func seedCourse(t *testing.T, db *gorm.DB, code, department string) models.Course {
	t.Helper()
	course := models.Course{
		CourseCode: code,
		Name:       "Course " + code,
		Department: department,
		Credits:    3,
	}
	require.NoError(t, db.Create(&course).Error)
	return course
}
