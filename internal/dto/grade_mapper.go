package dto

import (
	"fmt"

	"github.com/noah-isme/student-records-api/internal/models"
)

// gradeColumns maps every external grade field to its storage column.
// Only grade_id, grade and date are renamed.
var gradeColumns = map[string]string{
	"grade_id":    "id",
	"student_id":  "student_id",
	"course_code": "course_code",
	"grade":       "grade_value",
	"semester":    "semester",
	"date":        "grade_date",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
}

var gradeFields = invert(gradeColumns)

// GradeColumn returns the storage column for an external grade field.
func GradeColumn(field string) (string, bool) {
	column, ok := gradeColumns[field]
	return column, ok
}

// GradeExternalField returns the external name for a storage column.
// Unknown columns are returned unchanged.
func GradeExternalField(column string) string {
	if field, ok := gradeFields[column]; ok {
		return field
	}
	return column
}

// GradeColumns renames an externally keyed partial update into storage columns.
func GradeColumns(updates map[string]interface{}) (map[string]interface{}, error) {
	columns := make(map[string]interface{}, len(updates))
	for field, value := range updates {
		column, ok := GradeColumn(field)
		if !ok {
			return nil, fmt.Errorf("unknown grade field %q", field)
		}
		if date, isDate := value.(Date); isDate {
			value = dateToColumn(date)
		}
		columns[column] = value
	}
	return columns, nil
}

// GradeToExternal converts a stored grade into its external shape.
func GradeToExternal(grade models.Grade) Grade {
	return Grade{
		GradeID:    grade.ID,
		StudentID:  grade.StudentID,
		CourseCode: grade.CourseCode,
		Grade:      grade.GradeValue,
		Semester:   grade.Semester,
		Date:       dateFromColumn(grade.GradeDate),
		CreatedAt:  grade.CreatedAt,
		UpdatedAt:  grade.UpdatedAt,
	}
}

// GradeToInternal converts an external grade back into its stored shape.
func GradeToInternal(grade Grade) models.Grade {
	return models.Grade{
		ID:         grade.GradeID,
		StudentID:  grade.StudentID,
		CourseCode: grade.CourseCode,
		GradeValue: grade.Grade,
		Semester:   grade.Semester,
		GradeDate:  dateToColumn(grade.Date),
		CreatedAt:  grade.CreatedAt,
		UpdatedAt:  grade.UpdatedAt,
	}
}

// GradeToExternalSlice converts stored grades preserving order.
func GradeToExternalSlice(grades []models.Grade) []Grade {
	result := make([]Grade, 0, len(grades))
	for _, grade := range grades {
		result = append(result, GradeToExternal(grade))
	}
	return result
}

// GradeFromCreate maps a create payload onto a storage record.
func GradeFromCreate(req GradeCreateRequest) models.Grade {
	value := 0
	if req.Grade != nil {
		value = *req.Grade
	}
	return GradeToInternal(Grade{
		StudentID:  req.StudentID,
		CourseCode: req.CourseCode,
		Grade:      value,
		Semester:   req.Semester,
		Date:       req.Date,
	})
}

func invert(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[v] = k
	}
	return out
}
