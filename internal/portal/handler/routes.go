package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/songzhibin97/academia/internal/portal/middleware"
	"github.com/songzhibin97/academia/internal/portal/service"
	"github.com/songzhibin97/academia/pkg/portal"
)

// Handlers groups every portal API handler.
type Handlers struct {
	Auth                  *AuthHandler
	Health                *HealthHandler
	Departments           *EntityHandler[portal.Department]
	Courses               *EntityHandler[portal.Course]
	Enrollments           *EntityHandler[portal.Enrollment]
	StudentProfiles       *ProfileHandler[portal.StudentProfile, *portal.StudentProfile]
	FacultyProfiles       *ProfileHandler[portal.FacultyProfile, *portal.FacultyProfile]
	AdministratorProfiles *ProfileHandler[portal.AdministratorProfile, *portal.AdministratorProfile]
}

// New builds the handlers over services.
func New(services *service.Services, repo portal.Repository, authHandler *AuthHandler, errs *middleware.ErrorResponder) *Handlers {
	return &Handlers{
		Auth:        authHandler,
		Health:      NewHealthHandler(repo),
		Departments: NewEntityHandler(services.Departments, errs, nil),
		Courses:     NewEntityHandler(services.Courses, errs, nil),
		Enrollments: NewEntityHandler(services.Enrollments, errs, func(_ *gin.Context, e *portal.Enrollment) {
			if e.EnrolledAt.IsZero() {
				e.EnrolledAt = time.Now().UTC()
			}
		}),
		StudentProfiles: NewProfileHandler(services.StudentProfiles, errs,
			func(p *portal.StudentProfile, id int64) { p.UserID = id }),
		FacultyProfiles: NewProfileHandler(services.FacultyProfiles, errs,
			func(p *portal.FacultyProfile, id int64) { p.UserID = id }),
		AdministratorProfiles: NewProfileHandler(services.AdministratorProfiles, errs,
			func(p *portal.AdministratorProfile, id int64) { p.UserID = id }),
	}
}

// RegisterRoutes mounts the API on router.
func (h *Handlers) RegisterRoutes(router *gin.Engine, jwt *middleware.JWTMiddleware) {
	router.GET("/health", h.Health.Health)

	router.NoRoute(func(c *gin.Context) {
		middleware.Abort(c, http.StatusNotFound, "No handler found for "+c.Request.Method+" "+c.Request.URL.Path)
	})

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.GET("/me", jwt.RequireAuth(), h.Auth.Me)
	}

	secured := api.Group("", jwt.RequireAuth())

	courses := secured.Group("/courses")
	{
		courses.POST("", jwt.RequireRole(portal.RoleAdministrator, portal.RoleFacultyMember), h.Courses.Create)
		courses.GET("", h.Courses.List)
		courses.GET("/:id", h.Courses.Get)
	}

	departments := secured.Group("/departments")
	{
		departments.POST("", jwt.RequireRole(portal.RoleAdministrator), h.Departments.Create)
		departments.GET("", h.Departments.List)
		departments.GET("/:id", h.Departments.Get)
	}

	enrollments := secured.Group("/enrollments")
	{
		enrollments.POST("", h.Enrollments.Create)
		enrollments.GET("", h.Enrollments.List)
		enrollments.GET("/:id", h.Enrollments.Get)
	}

	student := secured.Group("/student/profile")
	{
		student.POST("", h.StudentProfiles.Create)
		student.GET("/:id", h.StudentProfiles.Get)
	}

	faculty := secured.Group("/faculty/profile")
	{
		faculty.POST("", h.FacultyProfiles.Create)
		faculty.GET("/:id", h.FacultyProfiles.Get)
	}

	admin := secured.Group("/admin/profile", jwt.RequireRole(portal.RoleAdministrator))
	{
		admin.POST("", h.AdministratorProfiles.Create)
		admin.GET("/:id", h.AdministratorProfiles.Get)
	}
}
