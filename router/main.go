package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ethicsfolio/portfolio-api/database"
	"github.com/ethicsfolio/portfolio-api/handlers"
	admin_handlers "github.com/ethicsfolio/portfolio-api/handlers/admin"
	auth_handlers "github.com/ethicsfolio/portfolio-api/handlers/auth"
	faculty_handlers "github.com/ethicsfolio/portfolio-api/handlers/faculty"
	portfolio_handlers "github.com/ethicsfolio/portfolio-api/handlers/portfolio"
	"github.com/ethicsfolio/portfolio-api/model"
	"github.com/ethicsfolio/portfolio-api/services"
	"github.com/ethicsfolio/portfolio-api/utils/auth"
	"github.com/ethicsfolio/portfolio-api/utils/cache"
	"github.com/ethicsfolio/portfolio-api/utils/middleware"
	"github.com/ethicsfolio/portfolio-api/utils/validation"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "ethicsfolio-api"
	}

	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis cache for brute force protection
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Services
	validator := validation.NewValidator()
	emailService := services.NewEmailService()
	authzService := services.NewAuthzService(db)
	scoringService := services.NewScoringService(db)
	portfolioService := services.NewPortfolioService(db, validator, authzService, scoringService)

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection, emailService)
	adminHandler := admin_handlers.NewAdminHandler(db, emailService)
	facultyHandler := faculty_handlers.NewFacultyHandler(db, authzService, portfolioService)
	portfolioHandler := portfolio_handlers.NewPortfolioHandler(db, portfolioService)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", handlers.HandleCheckHealth(store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes
	authGroup := api.Group("/auth")
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
		authGroup.Post("/forgot-password", bruteForceProtection.CheckAndRecordAttempt(), authHandler.ForgotPassword)
		authGroup.Post("/reset-password", bruteForceProtection.CheckAndRecordAttempt(), authHandler.ResetPassword)
	} else {
		authGroup.Post("/login", authHandler.Login)
		authGroup.Post("/forgot-password", authHandler.ForgotPassword)
		authGroup.Post("/reset-password", authHandler.ResetPassword)
	}
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)
	authGroup.Get("/profile", authMiddleware.Required(), authHandler.GetProfile)
	authGroup.Put("/profile", authMiddleware.Required(), authHandler.UpdateProfile)

	// Admin routes (super admin only, audit-logged)
	adminGroup := api.Group("/admin", authMiddleware.Required(), authMiddleware.RequireSuperAdmin())

	collegeGroup := adminGroup.Group("/colleges")
	collegeGroup.Post("/", middleware.AdminAuditLog(db, "college_create", "colleges"), adminHandler.CreateCollege)
	collegeGroup.Get("/", adminHandler.ListColleges)
	collegeGroup.Get("/:id", adminHandler.GetCollege)
	collegeGroup.Delete("/:id", middleware.AdminAuditLog(db, "college_delete", "colleges"), adminHandler.DeleteCollege)
	collegeGroup.Put("/:id/transfer-leadership", middleware.AdminAuditLog(db, "leadership_transfer", "colleges"), adminHandler.TransferLeadership)

	userGroup := adminGroup.Group("/users")
	userGroup.Post("/lead-faculty", middleware.AdminAuditLog(db, "user_create", "users"), adminHandler.CreateLeadFaculty)
	userGroup.Post("/faculty", middleware.AdminAuditLog(db, "user_create", "users"), adminHandler.CreateFaculty)
	userGroup.Post("/students", middleware.AdminAuditLog(db, "user_create", "users"), adminHandler.CreateStudent)
	userGroup.Get("/", adminHandler.ListUsers)
	userGroup.Get("/lead/:id/faculties", adminHandler.ListFacultiesByLead)
	userGroup.Get("/faculty/:id/students", adminHandler.ListStudentsByFaculty)
	userGroup.Delete("/:id", middleware.AdminAuditLog(db, "user_delete", "users"), adminHandler.DeleteUser)
	userGroup.Put("/:id/lead", middleware.AdminAuditLog(db, "faculty_reassign", "users"), adminHandler.ReassignFacultyLead)

	// Reviewer routes (faculty, lead faculty, super admin)
	facultyGroup := api.Group("/faculty", authMiddleware.Required(), authMiddleware.RequireReviewer())
	facultyGroup.Get("/students", facultyHandler.ListAssignedStudents)
	facultyGroup.Get("/students/:id/portfolio", facultyHandler.GetStudentPortfolio)
	facultyGroup.Post("/review", facultyHandler.ReviewPortfolioItem)

	// Student portfolio routes
	portfolioGroup := api.Group("/portfolio", authMiddleware.Required(), authMiddleware.RequireRole(model.RoleStudent))
	portfolioGroup.Get("/sections", portfolioHandler.ListSections)
	portfolioGroup.Get("/", portfolioHandler.GetPortfolio)
	portfolioGroup.Get("/:section", portfolioHandler.ListItems)
	portfolioGroup.Post("/:section", portfolioHandler.AddItem)
	portfolioGroup.Put("/:section/:id", portfolioHandler.UpdateItem)
	portfolioGroup.Delete("/:section/:id", portfolioHandler.DeleteItem)
}
