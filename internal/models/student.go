package models

import (
	"time"

	"gorm.io/datatypes"
)

// Student represents an enrolled learner. StudentID is immutable once created.
type Student struct {
	StudentID      string         `gorm:"column:student_id;primaryKey;size:10" json:"student_id"`
	FirstName      string         `gorm:"size:50;not null" json:"first_name"`
	LastName       string         `gorm:"size:50;not null" json:"last_name"`
	Email          string         `gorm:"size:100;uniqueIndex;not null" json:"email"`
	DateOfBirth    datatypes.Date `gorm:"not null" json:"date_of_birth"`
	Address        *string        `gorm:"type:text" json:"address"`
	Phone          *string        `gorm:"size:20" json:"phone"`
	EnrollmentDate datatypes.Date `gorm:"not null" json:"enrollment_date"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Grades         []Grade        `gorm:"foreignKey:StudentID;references:StudentID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// FullName joins first and last name for display.
func (s Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}
