package repository

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/noah-isme/student-records-api/internal/apperrors"
	"github.com/noah-isme/student-records-api/internal/models"
)

const entityGrade = "grade"

// GradeFilter narrows grade listings. Nil fields are not applied.
type GradeFilter struct {
	StudentID  *string
	CourseCode *string
}

// GradeRepository provides access to grade records.
// Listings are ordered by grade id ascending.
type GradeRepository interface {
	List(ctx context.Context, filter GradeFilter) ([]models.Grade, error)
	GetByID(ctx context.Context, id uint) (models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Grade, error)
	Delete(ctx context.Context, id uint) error
}

type gradeRepository struct {
	db *gorm.DB
}

// NewGradeRepository constructs a grade repository.
func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) List(ctx context.Context, filter GradeFilter) ([]models.Grade, error) {
	query := r.db.WithContext(ctx).Model(&models.Grade{})

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.CourseCode != nil {
		query = query.Where("course_code = ?", *filter.CourseCode)
	}

	var grades []models.Grade
	if err := query.Order("id ASC").Find(&grades).Error; err != nil {
		return nil, translateError(entityGrade, "", err)
	}

	return grades, nil
}

func (r *gradeRepository) GetByID(ctx context.Context, id uint) (models.Grade, error) {
	var grade models.Grade
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&grade).Error; err != nil {
		return models.Grade{}, translateError(entityGrade, gradeKey(id), err)
	}

	return grade, nil
}

func (r *gradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if !models.GradeValueInRange(grade.GradeValue) {
		return gradeRangeViolation(grade.GradeValue)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureStudentExists(tx, grade.StudentID); err != nil {
			return err
		}
		if err := ensureCourseExists(tx, grade.CourseCode); err != nil {
			return err
		}
		return tx.Create(grade).Error
	})
	return translateError(entityGrade, "", err)
}

func (r *gradeRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Grade, error) {
	key := gradeKey(id)
	for _, column := range []string{"id", "student_id", "course_code"} {
		if _, ok := updates[column]; ok {
			return models.Grade{}, apperrors.ConstraintViolation(entityGrade, column, apperrors.ConstraintCheck, column+" of a recorded grade is immutable")
		}
	}
	if raw, ok := updates["grade_value"]; ok {
		value, isInt := intValue(raw)
		if !isInt {
			return models.Grade{}, apperrors.ConstraintViolation(entityGrade, "grade_value", apperrors.ConstraintRange, "grade must be an integer")
		}
		if !models.GradeValueInRange(value) {
			return models.Grade{}, gradeRangeViolation(value)
		}
		updates["grade_value"] = value
	}

	var grade models.Grade
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&grade).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&grade).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&grade).Error
	})
	if err != nil {
		return models.Grade{}, translateError(entityGrade, key, err)
	}

	return grade, nil
}

func (r *gradeRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Grade{})
	if result.Error != nil {
		return translateError(entityGrade, gradeKey(id), result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound(entityGrade, gradeKey(id))
	}
	return nil
}

func ensureStudentExists(tx *gorm.DB, studentID string) error {
	var count int64
	if err := tx.Model(&models.Student{}).Where("student_id = ?", studentID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperrors.ReferentialIntegrity(entityGrade, studentID, "student_id",
			fmt.Sprintf("student %q does not exist", studentID))
	}
	return nil
}

func ensureCourseExists(tx *gorm.DB, courseCode string) error {
	var count int64
	if err := tx.Model(&models.Course{}).Where("course_code = ?", courseCode).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperrors.ReferentialIntegrity(entityGrade, courseCode, "course_code",
			fmt.Sprintf("course %q does not exist", courseCode))
	}
	return nil
}

func gradeRangeViolation(value int) error {
	return apperrors.ConstraintViolation(entityGrade, "grade_value", apperrors.ConstraintRange,
		fmt.Sprintf("grade %d is outside the allowed range %d-%d", value, models.MinGradeValue, models.MaxGradeValue))
}

func gradeKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// intValue normalises the numeric types a partial update map may carry.
func intValue(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case *int:
		if v == nil {
			return 0, false
		}
		return *v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}
