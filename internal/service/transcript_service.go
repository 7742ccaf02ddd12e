package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/student-records-api/internal/apperrors"
	"github.com/noah-isme/student-records-api/internal/dto"
	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/observability"
	"github.com/noah-isme/student-records-api/internal/repository"
)

// StudentResolution controls whether transcript entries carry the student summary.
type StudentResolution string

const (
	// StudentResolutionNone skips the student lookup.
	StudentResolutionNone StudentResolution = "none"
	// StudentResolutionBestEffort attaches the summary when the student exists.
	StudentResolutionBestEffort StudentResolution = "best_effort"
	// StudentResolutionRequired fails with NotFound when the student is missing.
	StudentResolutionRequired StudentResolution = "required"
)

// TranscriptSort selects an optional stable ordering applied after aggregation.
type TranscriptSort string

const (
	TranscriptSortNone       TranscriptSort = ""
	TranscriptSortDate       TranscriptSort = "date"
	TranscriptSortSemester   TranscriptSort = "semester"
	TranscriptSortCourseCode TranscriptSort = "course_code"
)

// TranscriptOptions tunes a single transcript request.
type TranscriptOptions struct {
	Student StudentResolution
	SortBy  TranscriptSort
}

// ParseStudentResolution accepts the query-string form of a StudentResolution.
func ParseStudentResolution(value string) (StudentResolution, error) {
	switch StudentResolution(strings.ToLower(strings.TrimSpace(value))) {
	case "", StudentResolutionNone:
		return StudentResolutionNone, nil
	case StudentResolutionBestEffort:
		return StudentResolutionBestEffort, nil
	case StudentResolutionRequired:
		return StudentResolutionRequired, nil
	}
	return "", apperrors.Validation("invalid student resolution", apperrors.FieldError{
		Field:   "student",
		Message: "must be one of [none best_effort required]",
	})
}

// ParseTranscriptSort accepts the query-string form of a TranscriptSort.
func ParseTranscriptSort(value string) (TranscriptSort, error) {
	switch TranscriptSort(strings.ToLower(strings.TrimSpace(value))) {
	case TranscriptSortNone:
		return TranscriptSortNone, nil
	case TranscriptSortDate:
		return TranscriptSortDate, nil
	case TranscriptSortSemester:
		return TranscriptSortSemester, nil
	case TranscriptSortCourseCode:
		return TranscriptSortCourseCode, nil
	}
	return "", apperrors.Validation("invalid sort", apperrors.FieldError{
		Field:   "sort",
		Message: "must be one of [date semester course_code]",
	})
}

// TranscriptGrades lists grades for a student.
type TranscriptGrades interface {
	List(ctx context.Context, filter repository.GradeFilter) ([]models.Grade, error)
}

// TranscriptService joins a student's grades with their courses.
type TranscriptService interface {
	GetTranscript(ctx context.Context, studentID string, opts TranscriptOptions) ([]dto.TranscriptEntry, error)
}

type transcriptService struct {
	grades   TranscriptGrades
	courses  CourseSource
	students StudentSource
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewTranscriptService constructs the transcript aggregator.
func NewTranscriptService(grades TranscriptGrades, courses CourseSource, students StudentSource, logger zerolog.Logger) TranscriptService {
	return &transcriptService{
		grades:   grades,
		courses:  courses,
		students: students,
		logger:   logger.With().Str("component", "transcript_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/student-records-api/internal/service/transcript"),
	}
}

func (s *transcriptService) GetTranscript(ctx context.Context, studentID string, opts TranscriptOptions) ([]dto.TranscriptEntry, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, apperrors.Validation("student id is required", apperrors.FieldError{Field: "student_id", Message: "is required"})
	}
	if opts.Student == "" {
		opts.Student = StudentResolutionNone
	}

	spanCtx, span := s.tracer.Start(ctx, "transcripts.get", trace.WithAttributes(
		attribute.String("transcript.student_id", studentID),
		attribute.String("transcript.student_resolution", string(opts.Student)),
	))
	defer span.End()

	lookup := newRecordLookup(s.courses, s.students)

	summary, err := s.resolveStudent(spanCtx, lookup, studentID, opts.Student)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	grades, err := s.grades.List(spanCtx, repository.GradeFilter{StudentID: &studentID})
	if err != nil {
		span.RecordError(err)
		return nil, asUnavailable(err)
	}

	entries := make([]dto.TranscriptEntry, 0, len(grades))
	if len(grades) == 0 {
		return entries, nil
	}

	unresolved := 0
	for _, grade := range grades {
		if err := spanCtx.Err(); err != nil {
			span.RecordError(err)
			return nil, apperrors.Unavailable(err)
		}

		entry := dto.NewTranscriptEntry(dto.GradeToExternal(grade))
		entry.Student = summary

		resolved, err := lookup.course(spanCtx, grade.CourseCode)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		if resolved.missing {
			unresolved++
			entry.Error = &dto.TranscriptEntryError{
				Code:    dto.TranscriptErrorReferentialIntegrity,
				Message: fmt.Sprintf("course %q referenced by grade %d does not exist", grade.CourseCode, grade.ID),
				Field:   "course_code",
				Key:     grade.CourseCode,
			}
		} else {
			entry.Course = resolved.course
		}

		entries = append(entries, entry)
	}

	sortTranscript(entries, opts.SortBy)

	observability.TranscriptEntries().WithLabelValues("resolved").Add(float64(len(entries) - unresolved))
	if unresolved > 0 {
		observability.TranscriptEntries().WithLabelValues("unresolved").Add(float64(unresolved))
		s.logger.Warn().
			Str("student_id", studentID).
			Int("unresolved", unresolved).
			Int("entries", len(entries)).
			Msg("transcript contains grades referencing missing courses")
	}
	span.SetAttributes(attribute.Int("transcript.entries", len(entries)), attribute.Int("transcript.unresolved", unresolved))

	return entries, nil
}

func (s *transcriptService) resolveStudent(ctx context.Context, lookup *recordLookup, studentID string, mode StudentResolution) (*dto.StudentSummary, error) {
	switch mode {
	case StudentResolutionNone:
		return nil, nil
	case StudentResolutionBestEffort, StudentResolutionRequired:
	default:
		return nil, apperrors.Validation("invalid student resolution", apperrors.FieldError{Field: "student", Message: "must be one of [none best_effort required]"})
	}

	resolved, err := lookup.student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if resolved.missing {
		if mode == StudentResolutionRequired {
			return nil, apperrors.NotFound("student", studentID)
		}
		return nil, nil
	}
	return resolved.student, nil
}

func sortTranscript(entries []dto.TranscriptEntry, by TranscriptSort) {
	var less func(a, b dto.TranscriptEntry) bool
	switch by {
	case TranscriptSortDate:
		less = func(a, b dto.TranscriptEntry) bool { return a.GradeDate.Time().Before(b.GradeDate.Time()) }
	case TranscriptSortSemester:
		less = func(a, b dto.TranscriptEntry) bool { return a.Semester < b.Semester }
	case TranscriptSortCourseCode:
		less = func(a, b dto.TranscriptEntry) bool { return a.CourseCode < b.CourseCode }
	default:
		return
	}

	sort.SliceStable(entries, func(i, j int) bool { return less(entries[i], entries[j]) })
}
