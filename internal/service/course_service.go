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

const entityTypeCourse = "course"

// CourseService manages the course catalogue.
type CourseService interface {
	List(ctx context.Context, req dto.CourseListRequest) ([]dto.CourseResponse, error)
	Get(ctx context.Context, code string) (dto.CourseResponse, error)
	Create(ctx context.Context, req dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, code string, req dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, code string) error
}

type courseService struct {
	repo      repository.CourseRepository
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo repository.CourseRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		repo:      repo,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) List(ctx context.Context, req dto.CourseListRequest) ([]dto.CourseResponse, error) {
	courses, err := s.repo.List(ctx, repository.CourseFilter{Department: cleanText(req.Department)})
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) Get(ctx context.Context, code string) (dto.CourseResponse, error) {
	course, err := s.repo.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, req dto.CourseCreateRequest) (dto.CourseResponse, error) {
	req.CourseCode = strings.TrimSpace(req.CourseCode)
	req.Name = cleanText(req.Name)
	req.Department = cleanText(req.Department)
	req.Description = cleanOptional(req.Description)

	if err := validation.Struct(s.validator, req); err != nil {
		return dto.CourseResponse{}, err
	}

	course := dto.NewCourseModel(req)
	if err := s.repo.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Action:     ActionCreated,
		EntityType: entityTypeCourse,
		EntityKey:  course.CourseCode,
		Metadata:   map[string]interface{}{"department": course.Department, "credits": course.Credits},
	})

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, code string, req dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	code = strings.TrimSpace(code)
	if err := validation.Struct(s.validator, req); err != nil {
		return dto.CourseResponse{}, err
	}
	if err := rejectKeyChange("course_code", code, req.CourseCode); err != nil {
		return dto.CourseResponse{}, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = cleanText(*req.Name)
	}
	if req.Department != nil {
		updates["department"] = cleanText(*req.Department)
	}
	if req.Credits != nil {
		updates["credits"] = *req.Credits
	}
	if req.Description != nil {
		updates["description"] = cleanOptional(req.Description)
	}

	for _, field := range []string{"name", "department"} {
		if value, ok := updates[field].(string); ok && value == "" {
			return dto.CourseResponse{}, apperrors.Validation("invalid payload", apperrors.FieldError{Field: field, Message: "is required"})
		}
	}

	course, err := s.repo.Update(ctx, code, updates)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if len(updates) > 0 {
		recordActivity(ctx, s.activity, s.logger, ActivityEntry{
			Action:     ActionUpdated,
			EntityType: entityTypeCourse,
			EntityKey:  code,
			Metadata:   map[string]interface{}{"fields": updatedFields(updates)},
		})
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if err := s.repo.Delete(ctx, code); err != nil {
		return err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Action:     ActionDeleted,
		EntityType: entityTypeCourse,
		EntityKey:  code,
	})

	return nil
}
