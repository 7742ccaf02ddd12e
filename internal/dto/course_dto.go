package dto

import (
	"time"

	"github.com/noah-isme/student-records-api/internal/models"
)

// CourseCreateRequest captures the payload for a new course.
type CourseCreateRequest struct {
	CourseCode  string  `json:"course_code" validate:"required,max=10"`
	Name        string  `json:"name" validate:"required,max=100"`
	Department  string  `json:"department" validate:"required,max=50"`
	Credits     int     `json:"credits" validate:"required,gt=0"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
}

// CourseUpdateRequest captures partial course updates.
type CourseUpdateRequest struct {
	CourseCode  *string `json:"course_code"`
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Department  *string `json:"department" validate:"omitempty,min=1,max=50"`
	Credits     *int    `json:"credits" validate:"omitempty,gt=0"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
}

// CourseListRequest narrows the course listing.
type CourseListRequest struct {
	Department string
}

// CourseResponse is the external representation of a course.
type CourseResponse struct {
	CourseCode  string    `json:"course_code"`
	Name        string    `json:"name"`
	Department  string    `json:"department"`
	Credits     int       `json:"credits"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCourseResponse converts a course model into a DTO.
func NewCourseResponse(course models.Course) CourseResponse {
	return CourseResponse{
		CourseCode:  course.CourseCode,
		Name:        course.Name,
		Department:  course.Department,
		Credits:     course.Credits,
		Description: course.Description,
		CreatedAt:   course.CreatedAt,
		UpdatedAt:   course.UpdatedAt,
	}
}

// NewCourseResponseSlice converts a list of courses.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}
	return responses
}

// NewCourseModel builds a model from a create payload.
func NewCourseModel(req CourseCreateRequest) models.Course {
	return models.Course{
		CourseCode:  req.CourseCode,
		Name:        req.Name,
		Department:  req.Department,
		Credits:     req.Credits,
		Description: req.Description,
	}
}
