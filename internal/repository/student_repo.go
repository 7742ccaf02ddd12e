package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/student-records-api/internal/apperrors"
	"github.com/noah-isme/student-records-api/internal/models"
)

const entityStudent = "student"

// StudentFilter narrows student listings.
type StudentFilter struct {
	Search string
}

// StudentRepository provides access to student records.
type StudentRepository interface {
	List(ctx context.Context, filter StudentFilter) ([]models.Student, error)
	GetByID(ctx context.Context, id string) (models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, id string, updates map[string]interface{}) (models.Student, error)
	Delete(ctx context.Context, id string) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}

	var students []models.Student
	if err := query.Order("student_id ASC").Find(&students).Error; err != nil {
		return nil, translateError(entityStudent, "", err)
	}

	return students, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("student_id = ?", id).First(&student).Error; err != nil {
		return models.Student{}, translateError(entityStudent, id, err)
	}

	return student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Student{}).Where("student_id = ?", student.StudentID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return uniqueViolation(entityStudent, student.StudentID, "student_id", nil)
		}
		return tx.Create(student).Error
	})
	return translateError(entityStudent, student.StudentID, err)
}

func (r *studentRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (models.Student, error) {
	if _, ok := updates["student_id"]; ok {
		return models.Student{}, apperrors.ConstraintViolation(entityStudent, "student_id", apperrors.ConstraintCheck, "student identifier is immutable")
	}

	var student models.Student
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", id).First(&student).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&student).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("student_id = ?", id).First(&student).Error
	})
	if err != nil {
		return models.Student{}, translateError(entityStudent, id, err)
	}

	return student, nil
}

func (r *studentRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.Student
		if err := tx.Where("student_id = ?", id).First(&student).Error; err != nil {
			return err
		}

		var dependents int64
		if err := tx.Model(&models.Grade{}).Where("student_id = ?", id).Count(&dependents).Error; err != nil {
			return err
		}
		if dependents > 0 {
			return apperrors.ReferentialIntegrity(entityStudent, id, "student_id",
				fmt.Sprintf("student %q is referenced by %d grade(s)", id, dependents))
		}

		result := tx.Where("student_id = ?", id).Delete(&models.Student{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translateError(entityStudent, id, err)
}
