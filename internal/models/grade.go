package models

import (
	"time"

	"gorm.io/datatypes"
)

// Grade bounds enforced at the storage boundary and by the table check constraint.
const (
	MinGradeValue = 0
	MaxGradeValue = 100
)

// Grade is a single recorded result of a student in a course.
// Column names differ from the public field names; see dto.GradeToExternal.
type Grade struct {
	ID         uint           `gorm:"column:id;primaryKey" json:"id"`
	StudentID  string         `gorm:"column:student_id;size:10;not null;index" json:"student_id"`
	CourseCode string         `gorm:"column:course_code;size:10;not null;index" json:"course_code"`
	GradeValue int            `gorm:"column:grade_value;not null;check:grade_value >= 0 AND grade_value <= 100" json:"grade_value"`
	Semester   string         `gorm:"size:32;not null" json:"semester"`
	GradeDate  datatypes.Date `gorm:"column:grade_date;not null" json:"grade_date"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// GradeValueInRange reports whether value satisfies the grade range invariant.
func GradeValueInRange(value int) bool {
	return value >= MinGradeValue && value <= MaxGradeValue
}
