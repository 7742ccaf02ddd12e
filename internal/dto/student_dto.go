package dto

import (
	"time"

	"github.com/noah-isme/student-records-api/internal/models"
)

// StudentCreateRequest captures the enrollment payload.
type StudentCreateRequest struct {
	StudentID      string  `json:"student_id" validate:"required,max=10"`
	FirstName      string  `json:"first_name" validate:"required,max=50"`
	LastName       string  `json:"last_name" validate:"required,max=50"`
	Email          string  `json:"email" validate:"required,email,max=100"`
	DateOfBirth    Date    `json:"date_of_birth" validate:"required"`
	Address        *string `json:"address" validate:"omitempty,max=500"`
	Phone          *string `json:"phone" validate:"omitempty,max=20"`
	EnrollmentDate Date    `json:"enrollment_date" validate:"required"`
}

// StudentUpdateRequest captures partial updates. Nil fields are left untouched.
type StudentUpdateRequest struct {
	StudentID      *string `json:"student_id"`
	FirstName      *string `json:"first_name" validate:"omitempty,min=1,max=50"`
	LastName       *string `json:"last_name" validate:"omitempty,min=1,max=50"`
	Email          *string `json:"email" validate:"omitempty,email,max=100"`
	DateOfBirth    *Date   `json:"date_of_birth"`
	Address        *string `json:"address" validate:"omitempty,max=500"`
	Phone          *string `json:"phone" validate:"omitempty,max=20"`
	EnrollmentDate *Date   `json:"enrollment_date"`
}

// StudentListRequest narrows the student listing.
type StudentListRequest struct {
	Search string
}

// StudentResponse is the external representation of a student.
type StudentResponse struct {
	StudentID      string    `json:"student_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	DateOfBirth    Date      `json:"date_of_birth"`
	Address        *string   `json:"address"`
	Phone          *string   `json:"phone"`
	EnrollmentDate Date      `json:"enrollment_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StudentSummary is the student block attached to transcript entries.
type StudentSummary struct {
	StudentID string `json:"student_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// NewStudentResponse converts a student model into a DTO.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		StudentID:      student.StudentID,
		FirstName:      student.FirstName,
		LastName:       student.LastName,
		Email:          student.Email,
		DateOfBirth:    dateFromColumn(student.DateOfBirth),
		Address:        student.Address,
		Phone:          student.Phone,
		EnrollmentDate: dateFromColumn(student.EnrollmentDate),
		CreatedAt:      student.CreatedAt,
		UpdatedAt:      student.UpdatedAt,
	}
}

// NewStudentResponseSlice converts a list of students.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}
	return responses
}

// NewStudentSummary trims a student down to its transcript fields.
func NewStudentSummary(student models.Student) StudentSummary {
	return StudentSummary{
		StudentID: student.StudentID,
		FirstName: student.FirstName,
		LastName:  student.LastName,
		Email:     student.Email,
	}
}

// NewStudentModel builds a model from an enrollment payload.
func NewStudentModel(req StudentCreateRequest) models.Student {
	return models.Student{
		StudentID:      req.StudentID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		DateOfBirth:    dateToColumn(req.DateOfBirth),
		Address:        req.Address,
		Phone:          req.Phone,
		EnrollmentDate: dateToColumn(req.EnrollmentDate),
	}
}
