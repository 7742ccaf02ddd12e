package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/student-records-api/internal/config"
	"github.com/noah-isme/student-records-api/internal/handler"
	"github.com/noah-isme/student-records-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StudentHandler    *handler.StudentHandler
	CourseHandler     *handler.CourseHandler
	GradeHandler      *handler.GradeHandler
	TranscriptHandler *handler.TranscriptHandler
	ActivityHandler   *handler.ActivityHandler
	DatabasePing      handler.DatabasePinger
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for health & headers
	v1 := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	v1.Get("/health", handler.HealthCheck(cfg, deps.DatabasePing))

	api := app.Group("/api")

	if deps.StudentHandler != nil {
		students := api.Group("/students")
		if deps.TranscriptHandler != nil {
			students.Get("/:id/transcript", deps.TranscriptHandler.Get)
		}
		deps.StudentHandler.Register(students)
	}

	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(api.Group("/courses"))
	}

	if deps.GradeHandler != nil {
		grades := api.Group("/grades")
		if deps.TranscriptHandler != nil {
			grades.Get("/student/:id/transcript", deps.TranscriptHandler.Get)
		}
		deps.GradeHandler.Register(grades)
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activity"))
	}
}
