package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/student-records-api/internal/apperrors"
	"github.com/noah-isme/student-records-api/internal/dto"
	"github.com/noah-isme/student-records-api/internal/repository"
	"github.com/noah-isme/student-records-api/internal/validation"
)

const entityTypeGrade = "grade"

// GradeService manages grade records. All inputs and outputs use external field names.
type GradeService interface {
	List(ctx context.Context, req dto.GradeListRequest) ([]dto.Grade, error)
	Get(ctx context.Context, id uint, expand dto.GradeExpand) (dto.Grade, error)
	Create(ctx context.Context, req dto.GradeCreateRequest) (dto.Grade, error)
	Update(ctx context.Context, id uint, req dto.GradeUpdateRequest) (dto.Grade, error)
	Delete(ctx context.Context, id uint) error
}

type gradeService struct {
	repo      repository.GradeRepository
	courses   CourseSource
	students  StudentSource
	activity  ActivityRecorder
	events    GradeEventPublisher
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewGradeService constructs the grade service. courses and students back the expand option; events may be nil.
func NewGradeService(repo repository.GradeRepository, courses CourseSource, students StudentSource, activity ActivityRecorder, events GradeEventPublisher, validate *validator.Validate, logger zerolog.Logger) GradeService {
	return &gradeService{
		repo:      repo,
		courses:   courses,
		students:  students,
		activity:  activity,
		events:    events,
		validator: validate,
		logger:    logger.With().Str("component", "grade_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/student-records-api/internal/service/grade"),
	}
}

func (s *gradeService) List(ctx context.Context, req dto.GradeListRequest) ([]dto.Grade, error) {
	filter := repository.GradeFilter{}
	if studentID := strings.TrimSpace(req.StudentID); studentID != "" {
		filter.StudentID = &studentID
	}
	if courseCode := strings.TrimSpace(req.CourseCode); courseCode != "" {
		filter.CourseCode = &courseCode
	}

	grades, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, externalizeGradeError(err)
	}

	external := dto.GradeToExternalSlice(grades)
	if err := s.expand(ctx, external, req.Expand); err != nil {
		return nil, err
	}
	return external, nil
}

func (s *gradeService) Get(ctx context.Context, id uint, expand dto.GradeExpand) (dto.Grade, error) {
	grade, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.Grade{}, externalizeGradeError(err)
	}

	external := []dto.Grade{dto.GradeToExternal(grade)}
	if err := s.expand(ctx, external, expand); err != nil {
		return dto.Grade{}, err
	}
	return external[0], nil
}

// expand embeds the requested relations. Missing rows are left out; storage failures abort the read.
func (s *gradeService) expand(ctx context.Context, grades []dto.Grade, expand dto.GradeExpand) error {
	if !expand.Any() || len(grades) == 0 {
		return nil
	}

	lookup := newRecordLookup(s.courses, s.students)
	for i := range grades {
		if err := ctx.Err(); err != nil {
			return apperrors.Unavailable(err)
		}
		if expand.Course {
			resolved, err := lookup.course(ctx, grades[i].CourseCode)
			if err != nil {
				return err
			}
			grades[i].Course = resolved.course
		}
		if expand.Student {
			resolved, err := lookup.student(ctx, grades[i].StudentID)
			if err != nil {
				return err
			}
			grades[i].Student = resolved.student
		}
	}
	return nil
}

// ParseGradeExpand accepts a comma separated list drawn from "student" and "course".
func ParseGradeExpand(value string) (dto.GradeExpand, error) {
	var expand dto.GradeExpand
	for _, part := range strings.Split(value, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "":
		case "student":
			expand.Student = true
		case "course":
			expand.Course = true
		default:
			return dto.GradeExpand{}, apperrors.Validation("invalid expand", apperrors.FieldError{
				Field:   "expand",
				Message: "must be a comma separated list of [student course]",
			})
		}
	}
	return expand, nil
}

func (s *gradeService) Create(ctx context.Context, req dto.GradeCreateRequest) (dto.Grade, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.CourseCode = strings.TrimSpace(req.CourseCode)
	req.Semester = cleanText(req.Semester)

	if err := validation.Struct(s.validator, req); err != nil {
		return dto.Grade{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "grades.create", trace.WithAttributes(
		attribute.String("grade.student_id", req.StudentID),
		attribute.String("grade.course_code", req.CourseCode),
	))
	defer span.End()

	model := dto.GradeFromCreate(req)
	if err := s.repo.Create(spanCtx, &model); err != nil {
		span.RecordError(err)
		return dto.Grade{}, externalizeGradeError(err)
	}

	grade := dto.GradeToExternal(model)
	s.afterWrite(spanCtx, ActionCreated, GradeEventCreated, grade, map[string]interface{}{
		"student_id":  grade.StudentID,
		"course_code": grade.CourseCode,
		"grade":       grade.Grade,
	})

	return grade, nil
}

func (s *gradeService) Update(ctx context.Context, id uint, req dto.GradeUpdateRequest) (dto.Grade, error) {
	if err := validation.Struct(s.validator, req); err != nil {
		return dto.Grade{}, err
	}
	if req.GradeID != nil && *req.GradeID != id {
		return dto.Grade{}, apperrors.Validation("grade_id cannot be changed", apperrors.FieldError{Field: "grade_id", Message: "cannot be changed"})
	}
	if req.StudentID != nil || req.CourseCode != nil {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return dto.Grade{}, externalizeGradeError(err)
		}
		if err := rejectKeyChange("student_id", current.StudentID, req.StudentID); err != nil {
			return dto.Grade{}, err
		}
		if err := rejectKeyChange("course_code", current.CourseCode, req.CourseCode); err != nil {
			return dto.Grade{}, err
		}
	}

	external := map[string]interface{}{}
	if req.Grade != nil {
		external["grade"] = *req.Grade
	}
	if req.Semester != nil {
		semester := cleanText(*req.Semester)
		if semester == "" {
			return dto.Grade{}, apperrors.Validation("invalid payload", apperrors.FieldError{Field: "semester", Message: "is required"})
		}
		external["semester"] = semester
	}
	if req.Date != nil {
		external["date"] = *req.Date
	}

	columns, err := dto.GradeColumns(external)
	if err != nil {
		return dto.Grade{}, apperrors.Validation(err.Error())
	}

	spanCtx, span := s.tracer.Start(ctx, "grades.update", trace.WithAttributes(attribute.Int("grade.id", int(id))))
	defer span.End()

	model, err := s.repo.Update(spanCtx, id, columns)
	if err != nil {
		span.RecordError(err)
		return dto.Grade{}, externalizeGradeError(err)
	}

	grade := dto.GradeToExternal(model)
	if len(external) > 0 {
		s.afterWrite(spanCtx, ActionUpdated, GradeEventUpdated, grade, map[string]interface{}{
			"fields": updatedFields(external),
		})
	}

	return grade, nil
}

func (s *gradeService) Delete(ctx context.Context, id uint) error {
	spanCtx, span := s.tracer.Start(ctx, "grades.delete", trace.WithAttributes(attribute.Int("grade.id", int(id))))
	defer span.End()

	existing, err := s.repo.GetByID(spanCtx, id)
	if err != nil {
		span.RecordError(err)
		return externalizeGradeError(err)
	}

	if err := s.repo.Delete(spanCtx, id); err != nil {
		span.RecordError(err)
		return externalizeGradeError(err)
	}

	grade := dto.GradeToExternal(existing)
	s.afterWrite(spanCtx, ActionDeleted, GradeEventDeleted, grade, map[string]interface{}{
		"student_id":  grade.StudentID,
		"course_code": grade.CourseCode,
	})

	return nil
}

func (s *gradeService) afterWrite(ctx context.Context, action, eventType string, grade dto.Grade, metadata map[string]interface{}) {
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Action:     action,
		EntityType: entityTypeGrade,
		EntityKey:  gradeKey(grade.GradeID),
		Metadata:   metadata,
	})
	if s.events != nil {
		s.events.Publish(ctx, eventType, grade)
	}
	s.logger.Info().Uint("grade_id", grade.GradeID).Str("action", action).Msg("grade written")
}

// externalizeGradeError rewrites storage column names on grade errors into external field names.
func externalizeGradeError(err error) error {
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Field == "" {
		return err
	}

	field := dto.GradeExternalField(appErr.Field)
	if field == appErr.Field {
		return err
	}

	rewritten := *appErr
	rewritten.Field = field
	rewritten.Message = strings.ReplaceAll(appErr.Message, appErr.Field, field)
	return &rewritten
}
