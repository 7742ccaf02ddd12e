package dto

import "time"

// Grade is the external representation of a grade record.
type Grade struct {
	GradeID    uint      `json:"grade_id"`
	StudentID  string    `json:"student_id"`
	CourseCode string    `json:"course_code"`
	Grade      int       `json:"grade"`
	Semester   string    `json:"semester"`
	Date       Date      `json:"date"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Student *StudentSummary   `json:"student,omitempty"`
	Course  *TranscriptCourse `json:"course,omitempty"`
}

// GradeExpand selects the related records embedded in grade reads.
type GradeExpand struct {
	Student bool
	Course  bool
}

// Any reports whether at least one relation was requested.
func (e GradeExpand) Any() bool {
	return e.Student || e.Course
}

// GradeCreateRequest captures the payload for recording a grade.
// The 0..100 range is enforced by the grade repository and the table check constraint.
type GradeCreateRequest struct {
	StudentID  string `json:"student_id" validate:"required,max=10"`
	CourseCode string `json:"course_code" validate:"required,max=10"`
	Grade      *int   `json:"grade" validate:"required"`
	Semester   string `json:"semester" validate:"required,max=32"`
	Date       Date   `json:"date" validate:"required"`
}

// GradeUpdateRequest captures partial grade updates. Nil fields are left untouched.
// Key fields may only repeat the stored values.
type GradeUpdateRequest struct {
	GradeID    *uint   `json:"grade_id"`
	StudentID  *string `json:"student_id"`
	CourseCode *string `json:"course_code"`
	Grade      *int    `json:"grade"`
	Semester *string `json:"semester" validate:"omitempty,min=1,max=32"`
	Date     *Date   `json:"date"`
}

// GradeListRequest narrows the grade listing.
type GradeListRequest struct {
	StudentID  string
	CourseCode string
	Expand     GradeExpand
}
