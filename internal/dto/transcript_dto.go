package dto

import "github.com/noah-isme/student-records-api/internal/models"

// Transcript entry error codes.
const (
	TranscriptErrorReferentialIntegrity = "referential_integrity"
)

// TranscriptCourse is the course block of a transcript entry.
type TranscriptCourse struct {
	CourseCode  string  `json:"course_code"`
	CourseName  string  `json:"course_name"`
	Credits     int     `json:"credits"`
	Department  string  `json:"department"`
	Description *string `json:"description"`
}

// TranscriptEntryError marks an entry whose joined data could not be resolved.
type TranscriptEntryError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Key     string `json:"key,omitempty"`
}

// TranscriptEntry combines one grade with its resolved course and, optionally, student.
type TranscriptEntry struct {
	GradeID    uint                  `json:"grade_id"`
	Semester   string                `json:"semester"`
	GradeValue int                   `json:"grade_value"`
	GradeDate  Date                  `json:"grade_date"`
	CourseCode string                `json:"-"`
	Course     *TranscriptCourse     `json:"course,omitempty"`
	Student    *StudentSummary       `json:"student,omitempty"`
	Error      *TranscriptEntryError `json:"error,omitempty"`
}

// Resolved reports whether the entry joined successfully.
func (e TranscriptEntry) Resolved() bool {
	return e.Error == nil && e.Course != nil
}

// NewTranscriptEntry starts an entry from an external grade.
func NewTranscriptEntry(grade Grade) TranscriptEntry {
	return TranscriptEntry{
		GradeID:    grade.GradeID,
		Semester:   grade.Semester,
		GradeValue: grade.Grade,
		GradeDate:  grade.Date,
		CourseCode: grade.CourseCode,
	}
}

// NewTranscriptCourse converts a course into its transcript block.
func NewTranscriptCourse(course models.Course) *TranscriptCourse {
	return &TranscriptCourse{
		CourseCode:  course.CourseCode,
		CourseName:  course.Name,
		Credits:     course.Credits,
		Department:  course.Department,
		Description: course.Description,
	}
}
