package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/api/config"
	"github.com/learnhub/api/database"
	"github.com/learnhub/api/handlers"
	admin_handlers "github.com/learnhub/api/handlers/admin"
	auth_handlers "github.com/learnhub/api/handlers/auth"
	content_handlers "github.com/learnhub/api/handlers/content"
	course_handlers "github.com/learnhub/api/handlers/course"
	doubt_handlers "github.com/learnhub/api/handlers/doubt"
	notification_handlers "github.com/learnhub/api/handlers/notification"
	settings_handlers "github.com/learnhub/api/handlers/settings"
	thought_handlers "github.com/learnhub/api/handlers/thought"
	"github.com/learnhub/api/services"
	"github.com/learnhub/api/utils"
	"github.com/learnhub/api/utils/auth"
	"github.com/learnhub/api/utils/cache"
	"github.com/learnhub/api/utils/middleware"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage, coinService *services.CoinService, notificationService *services.NotificationService) {
	getEnv, err := config.Get()
	if err != nil {
		log.Fatal("Failed to load configuration")
	}

	if getEnv.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := getEnv.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "learnhub-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret:        getEnv.JWT_SECRET,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize Redis cache for brute force protection
	redisURL := getEnv.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	// Initialize brute force protection
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Initialize services
	courseService := services.NewCourseService(db)
	doubtService := services.NewDoubtService(db, coinService, getEnv.DOUBT_REWARD_COINS)
	thoughtService := services.NewThoughtService(db, coinService, getEnv.THOUGHT_REWARD_COINS)
	analyticsService := services.NewAnalyticsService(db)

	// Initialize handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	courseHandler := course_handlers.NewCourseHandler(db, courseService)
	doubtHandler := doubt_handlers.NewDoubtHandler(db, doubtService)
	thoughtHandler := thought_handlers.NewThoughtHandler(db, thoughtService, coinService)
	notificationHandler := notification_handlers.NewNotificationHandler(db, notificationService)
	settingsHandler := settings_handlers.NewSettingsHandler(db)
	contentHandler := content_handlers.NewContentHandler(db)
	adminHandler := admin_handlers.NewAdminHandler(db, doubtService, thoughtService, notificationService, coinService, analyticsService)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)
	profileGroup.Put("/change-password", authHandler.ChangePassword)
	profileGroup.Get("/enrollments", courseHandler.MyEnrollments)

	// ==================== Courses & Enrollments ====================

	courses := api.Group("/courses")
	courses.Get("/", authMiddleware.Optional(), courseHandler.ListCourses)  // Public: published catalog
	courses.Get("/:id", authMiddleware.Optional(), courseHandler.GetCourse) // Public: course details

	// Enrollment routes (protected)
	courses.Post("/:id/enroll", authMiddleware.Required(), courseHandler.Enroll)
	courses.Put("/:id/progress", authMiddleware.Required(), courseHandler.UpdateProgress)
	courses.Delete("/:id/enroll", authMiddleware.Required(), courseHandler.DropEnrollment)
	courses.Post("/:id/rate", authMiddleware.Required(), courseHandler.RateCourse)
	api.Get("/enrollments", authMiddleware.Required(), courseHandler.MyEnrollments)

	// ==================== Doubts ====================

	doubts := api.Group("/doubts", authMiddleware.Required())
	doubts.Post("/", doubtHandler.Submit)
	doubts.Get("/my-doubts", doubtHandler.MyDoubts)
	doubts.Get("/my-stats", doubtHandler.MyStats)
	doubts.Get("/:id", doubtHandler.GetDoubt)
	doubts.Delete("/:id", doubtHandler.Delete)

	// ==================== Thoughts ====================

	thoughts := api.Group("/thoughts")
	thoughts.Get("/approved", thoughtHandler.Approved) // Public: approved wall
	thoughts.Post("/", authMiddleware.Required(), thoughtHandler.Submit)
	thoughts.Get("/my-thoughts", authMiddleware.Required(), thoughtHandler.MyThoughts)
	thoughts.Get("/my-stats", authMiddleware.Required(), thoughtHandler.MyStats)
	thoughts.Delete("/:id", authMiddleware.Required(), thoughtHandler.Delete)

	// ==================== Coins ====================

	thoughts.Get("/coins", authMiddleware.Required(), thoughtHandler.MyCoins)
	thoughts.Get("/coins/transactions", authMiddleware.Required(), thoughtHandler.MyTransactions)
	api.Get("/leaderboard", thoughtHandler.Leaderboard) // Public

	// ==================== Notification Feed ====================

	notifications := api.Group("/notifications", authMiddleware.Required())
	notifications.Get("/", notificationHandler.Feed)
	notifications.Get("/unread-count", notificationHandler.UnreadCount)
	notifications.Post("/read-all", notificationHandler.MarkAllRead)
	notifications.Post("/:id/read", notificationHandler.MarkRead)
	notifications.Post("/:id/dismiss", notificationHandler.Dismiss)
	notifications.Delete("/:id", notificationHandler.Remove)

	// ==================== Settings ====================

	settingsGroup := api.Group("/settings", authMiddleware.Required())
	settingsGroup.Get("/", settingsHandler.Get)
	settingsGroup.Put("/", settingsHandler.Update)
	settingsGroup.Post("/reset", settingsHandler.Reset)

	// ==================== Content Library ====================

	contents := api.Group("/content")
	contents.Get("/", authMiddleware.Optional(), contentHandler.List)
	contents.Get("/:id", authMiddleware.Optional(), contentHandler.Get)
	contents.Post("/:id/view", contentHandler.View)
	contents.Post("/:id/download", contentHandler.Download)

	// ==================== Admin Console ====================

	// Admin auth is registered before the console group so login stays
	// reachable without a token
	adminAuth := api.Group("/admin/auth")
	if bruteForceProtection != nil {
		adminAuth.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.AdminLogin)
	} else {
		adminAuth.Post("/login", authHandler.AdminLogin)
	}
	adminAuth.Get("/profile", authMiddleware.RequireAdmin(), authHandler.GetProfile)

	admin := api.Group("/admin", authMiddleware.RequireAdmin())

	// Dashboard & analytics
	admin.Get("/dashboard/stats", adminHandler.Dashboard)
	admin.Get("/dashboard/activity", adminHandler.RecentActivity)
	admin.Get("/analytics/overview", adminHandler.AnalyticsOverview)
	admin.Get("/analytics/users", adminHandler.UserGrowth)
	admin.Get("/analytics/enrollments", adminHandler.EnrollmentTrend)
	admin.Get("/analytics/doubts", adminHandler.DoubtTrend)
	admin.Get("/analytics/courses", adminHandler.TopCourses)
	admin.Get("/analytics/revenue", adminHandler.Revenue)

	// User management. The stats route precedes the :id routes so "stats"
	// never parses as a user ID.
	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/users/stats", adminHandler.UserStatsOverview)
	admin.Get("/users/:id", adminHandler.GetUser)
	admin.Put("/users/:id", middleware.AdminAuditLog(store, "user_update", "users"), adminHandler.UpdateUser)
	admin.Patch("/users/:id/suspend", middleware.AdminAuditLog(store, "user_suspend", "users"), adminHandler.SuspendUser)
	admin.Delete("/users/:id", middleware.AdminAuditLog(store, "user_delete", "users"), adminHandler.DeleteUser)
	admin.Post("/users/:id/reset-password", middleware.AdminAuditLog(store, "password_reset", "users"), adminHandler.ResetUserPassword)

	// Coin ledger
	admin.Post("/coins/transfer", middleware.AdminAuditLog(store, "coin_transfer", "users"), adminHandler.TransferCoins)
	admin.Get("/coins/reconcile", adminHandler.ReconcileLedger)

	// Catalog management
	admin.Post("/courses", middleware.AdminAuditLog(store, "course_create", "courses"), courseHandler.CreateCourse)
	admin.Put("/courses/:id", middleware.AdminAuditLog(store, "course_update", "courses"), courseHandler.UpdateCourse)
	admin.Delete("/courses/:id", middleware.AdminAuditLog(store, "course_delete", "courses"), courseHandler.DeleteCourse)

	// Content library management
	admin.Post("/content", middleware.AdminAuditLog(store, "content_create", "content"), contentHandler.Create)
	admin.Put("/content/:id", middleware.AdminAuditLog(store, "content_update", "content"), contentHandler.Update)
	admin.Delete("/content/:id", middleware.AdminAuditLog(store, "content_delete", "content"), contentHandler.Delete)

	// Doubt moderation
	admin.Get("/doubts", adminHandler.ListDoubts)
	admin.Get("/doubts/stats", adminHandler.DoubtStatsOverview)
	admin.Get("/doubts/leaderboard", adminHandler.CoinLeaderboard)
	admin.Post("/doubts/:id/answer", middleware.AdminAuditLog(store, "doubt_answer", "doubts"), adminHandler.AnswerDoubt)
	admin.Post("/doubts/:id/close", middleware.AdminAuditLog(store, "doubt_close", "doubts"), adminHandler.CloseDoubt)

	// Thought moderation
	admin.Get("/thoughts", adminHandler.ListThoughts)
	admin.Get("/thoughts/stats", adminHandler.ThoughtStatsOverview)
	admin.Get("/thoughts/:id", adminHandler.GetThought)
	admin.Post("/thoughts/:id/approve", middleware.AdminAuditLog(store, "thought_approve", "thoughts"), adminHandler.ApproveThought)
	admin.Post("/thoughts/:id/reject", middleware.AdminAuditLog(store, "thought_reject", "thoughts"), adminHandler.RejectThought)
	admin.Delete("/thoughts/:id", middleware.AdminAuditLog(store, "thought_delete", "thoughts"), adminHandler.DeleteThought)

	// Notification management
	admin.Get("/notifications", adminHandler.ListNotifications)
	admin.Get("/notifications/stats", adminHandler.NotificationStatsOverview)
	admin.Get("/notifications/:id", adminHandler.GetNotification)
	admin.Post("/notifications", middleware.AdminAuditLog(store, "notification_create", "notifications"), adminHandler.CreateNotification)
	admin.Put("/notifications/:id", middleware.AdminAuditLog(store, "notification_update", "notifications"), adminHandler.UpdateNotification)
	admin.Post("/notifications/:id/send", middleware.AdminAuditLog(store, "notification_send", "notifications"), adminHandler.SendNotification)
	admin.Delete("/notifications/:id", middleware.AdminAuditLog(store, "notification_delete", "notifications"), adminHandler.DeleteNotification)

	// Settings adoption & content library
	admin.Get("/settings", adminHandler.ListSettings)
	admin.Get("/settings/stats", adminHandler.SettingsStatsOverview)
	admin.Get("/content/stats", adminHandler.ContentStatsOverview)

	// Audit & cron logs
	admin.Get("/audit", adminHandler.ListAuditLogs)
	admin.Get("/audit/:id", adminHandler.GetAuditLog)
	admin.Get("/cron-logs", adminHandler.ListCronLogs)
}
