package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/student-records-api/internal/apperrors"
	"github.com/noah-isme/student-records-api/internal/models"
)

const entityCourse = "course"

// CourseFilter narrows course listings.
type CourseFilter struct {
	Department string
}

// CourseRepository provides access to course records.
type CourseRepository interface {
	List(ctx context.Context, filter CourseFilter) ([]models.Course, error)
	GetByCode(ctx context.Context, code string) (models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, code string, updates map[string]interface{}) (models.Course, error)
	Delete(ctx context.Context, code string) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs a course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{})

	if department := strings.TrimSpace(filter.Department); department != "" {
		query = query.Where("department = ?", department)
	}

	var courses []models.Course
	if err := query.Order("course_code ASC").Find(&courses).Error; err != nil {
		return nil, translateError(entityCourse, "", err)
	}

	return courses, nil
}

func (r *courseRepository) GetByCode(ctx context.Context, code string) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Where("course_code = ?", code).First(&course).Error; err != nil {
		return models.Course{}, translateError(entityCourse, code, err)
	}

	return course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.Credits <= 0 {
		return apperrors.ConstraintViolation(entityCourse, "credits", apperrors.ConstraintRange, "credits must be a positive integer")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Course{}).Where("course_code = ?", course.CourseCode).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return uniqueViolation(entityCourse, course.CourseCode, "course_code", nil)
		}
		return tx.Create(course).Error
	})
	return translateError(entityCourse, course.CourseCode, err)
}

func (r *courseRepository) Update(ctx context.Context, code string, updates map[string]interface{}) (models.Course, error) {
	if _, ok := updates["course_code"]; ok {
		return models.Course{}, apperrors.ConstraintViolation(entityCourse, "course_code", apperrors.ConstraintCheck, "course code is immutable")
	}
	if credits, ok := updates["credits"]; ok {
		if value, isInt := intValue(credits); !isInt || value <= 0 {
			return models.Course{}, apperrors.ConstraintViolation(entityCourse, "credits", apperrors.ConstraintRange, "credits must be a positive integer")
		}
	}

	var course models.Course
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_code = ?", code).First(&course).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&course).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("course_code = ?", code).First(&course).Error
	})
	if err != nil {
		return models.Course{}, translateError(entityCourse, code, err)
	}

	return course, nil
}

func (r *courseRepository) Delete(ctx context.Context, code string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.Where("course_code = ?", code).First(&course).Error; err != nil {
			return err
		}

		var dependents int64
		if err := tx.Model(&models.Grade{}).Where("course_code = ?", code).Count(&dependents).Error; err != nil {
			return err
		}
		if dependents > 0 {
			return apperrors.ReferentialIntegrity(entityCourse, code, "course_code",
				fmt.Sprintf("course %q is referenced by %d grade(s)", code, dependents))
		}

		result := tx.Where("course_code = ?", code).Delete(&models.Course{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translateError(entityCourse, code, err)
}
