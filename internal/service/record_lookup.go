package service

import (
	"context"
	"errors"

	"github.com/noah-isme/student-records-api/internal/apperrors"
	"github.com/noah-isme/student-records-api/internal/dto"
	"github.com/noah-isme/student-records-api/internal/models"
)

// CourseSource looks up a single course.
type CourseSource interface {
	GetByCode(ctx context.Context, code string) (models.Course, error)
}

// StudentSource looks up a single student.
type StudentSource interface {
	GetByID(ctx context.Context, id string) (models.Student, error)
}

type courseLookup struct {
	course  *dto.TranscriptCourse
	missing bool
}

type studentLookup struct {
	student *dto.StudentSummary
	missing bool
}

// recordLookup resolves each course and student key at most once. It lives for a single request.
type recordLookup struct {
	courses  CourseSource
	students StudentSource

	courseMemo  map[string]courseLookup
	studentMemo map[string]studentLookup
}

func newRecordLookup(courses CourseSource, students StudentSource) *recordLookup {
	return &recordLookup{
		courses:     courses,
		students:    students,
		courseMemo:  make(map[string]courseLookup),
		studentMemo: make(map[string]studentLookup),
	}
}

// course returns the memoized course block. A missing course is not an error; storage failures are Unavailable.
func (l *recordLookup) course(ctx context.Context, code string) (courseLookup, error) {
	if lookup, ok := l.courseMemo[code]; ok {
		return lookup, nil
	}

	course, err := l.courses.GetByCode(ctx, code)
	switch {
	case err == nil:
		l.courseMemo[code] = courseLookup{course: dto.NewTranscriptCourse(course)}
	case errors.Is(err, apperrors.ErrNotFound):
		l.courseMemo[code] = courseLookup{missing: true}
	default:
		return courseLookup{}, asUnavailable(err)
	}

	return l.courseMemo[code], nil
}

// student mirrors course for student summaries.
func (l *recordLookup) student(ctx context.Context, id string) (studentLookup, error) {
	if lookup, ok := l.studentMemo[id]; ok {
		return lookup, nil
	}

	student, err := l.students.GetByID(ctx, id)
	switch {
	case err == nil:
		summary := dto.NewStudentSummary(student)
		l.studentMemo[id] = studentLookup{student: &summary}
	case errors.Is(err, apperrors.ErrNotFound):
		l.studentMemo[id] = studentLookup{missing: true}
	default:
		return studentLookup{}, asUnavailable(err)
	}

	return l.studentMemo[id], nil
}

// asUnavailable reports any storage failure during a join as retryable.
func asUnavailable(err error) error {
	if errors.Is(err, apperrors.ErrUnavailable) {
		return err
	}
	return apperrors.Unavailable(err)
}
