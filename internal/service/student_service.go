package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/student-records-api/internal/apperrors"
	"github.com/noah-isme/student-records-api/internal/dto"
	"github.com/noah-isme/student-records-api/internal/repository"
	"github.com/noah-isme/student-records-api/internal/validation"
)

const entityTypeStudent = "student"

// StudentService manages student records.
type StudentService interface {
	List(ctx context.Context, req dto.StudentListRequest) ([]dto.StudentResponse, error)
	Get(ctx context.Context, id string) (dto.StudentResponse, error)
	Create(ctx context.Context, req dto.StudentCreateRequest) (dto.StudentResponse, error)
	Update(ctx context.Context, id string, req dto.StudentUpdateRequest) (dto.StudentResponse, error)
	Delete(ctx context.Context, id string) error
}

type studentService struct {
	repo      repository.StudentRepository
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo repository.StudentRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		repo:      repo,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) List(ctx context.Context, req dto.StudentListRequest) ([]dto.StudentResponse, error) {
	students, err := s.repo.List(ctx, repository.StudentFilter{Search: cleanText(req.Search)})
	if err != nil {
		return nil, err
	}
	return dto.NewStudentResponseSlice(students), nil
}

func (s *studentService) Get(ctx context.Context, id string) (dto.StudentResponse, error) {
	student, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return dto.StudentResponse{}, err
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Create(ctx context.Context, req dto.StudentCreateRequest) (dto.StudentResponse, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.FirstName = cleanText(req.FirstName)
	req.LastName = cleanText(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Address = cleanOptional(req.Address)
	req.Phone = cleanOptional(req.Phone)

	if err := validation.Struct(s.validator, req); err != nil {
		return dto.StudentResponse{}, err
	}

	student := dto.NewStudentModel(req)
	if err := s.repo.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Action:     ActionCreated,
		EntityType: entityTypeStudent,
		EntityKey:  student.StudentID,
		Metadata:   map[string]interface{}{"email": student.Email},
	})
	s.logger.Info().Str("student_id", student.StudentID).Msg("student created")

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, id string, req dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	id = strings.TrimSpace(id)
	if err := validation.Struct(s.validator, req); err != nil {
		return dto.StudentResponse{}, err
	}
	if err := rejectKeyChange("student_id", id, req.StudentID); err != nil {
		return dto.StudentResponse{}, err
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = cleanText(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = cleanText(*req.LastName)
	}
	if req.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.DateOfBirth != nil {
		updates["date_of_birth"] = dto.DateColumn(*req.DateOfBirth)
	}
	if req.Address != nil {
		updates["address"] = cleanOptional(req.Address)
	}
	if req.Phone != nil {
		updates["phone"] = cleanOptional(req.Phone)
	}
	if req.EnrollmentDate != nil {
		updates["enrollment_date"] = dto.DateColumn(*req.EnrollmentDate)
	}

	for _, field := range []string{"first_name", "last_name", "email"} {
		if value, ok := updates[field].(string); ok && value == "" {
			return dto.StudentResponse{}, apperrors.Validation("invalid payload", apperrors.FieldError{Field: field, Message: "is required"})
		}
	}

	student, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	if len(updates) > 0 {
		recordActivity(ctx, s.activity, s.logger, ActivityEntry{
			Action:     ActionUpdated,
			EntityType: entityTypeStudent,
			EntityKey:  id,
			Metadata:   map[string]interface{}{"fields": updatedFields(updates)},
		})
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Action:     ActionDeleted,
		EntityType: entityTypeStudent,
		EntityKey:  id,
	})
	s.logger.Info().Str("student_id", id).Msg("student deleted")

	return nil
}
