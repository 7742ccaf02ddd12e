package models

import "time"

// Course is a catalogue entry referenced by grades through its code.
type Course struct {
	CourseCode  string    `gorm:"column:course_code;primaryKey;size:10" json:"course_code"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Department  string    `gorm:"size:50;not null;index" json:"department"`
	Credits     int       `gorm:"not null;check:credits > 0" json:"credits"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Grades      []Grade   `gorm:"foreignKey:CourseCode;references:CourseCode;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}
