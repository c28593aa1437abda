package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/coursetrack/internal/app/controllers"
	"github.com/yigit/coursetrack/internal/app/models"
	"github.com/yigit/coursetrack/internal/app/models/dto"
	"github.com/yigit/coursetrack/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	courseController *controllers.CourseController,
	blockController *controllers.BlockController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
	}

	// --- Public read routes ---
	courses := v1.Group("/courses")
	{
		courses.GET("", courseController.GetAllCourses)
		courses.GET("/:id", courseController.GetCourseByID)
		courses.GET("/:id/blocks", blockController.ListBlocks)
		courses.GET("/:id/blocks/:blockId", blockController.GetBlockByID)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		// Course and block mutations require an authenticated author
		coursesProtected := authenticated.Group("/courses")
		{
			coursesProtected.POST("", courseController.CreateCourse)
			coursesProtected.PUT("/:id", courseController.UpdateCourse)
			coursesProtected.DELETE("/:id", courseController.DeleteCourse)

			coursesProtected.POST("/:id/blocks", blockController.CreateBlock)
			coursesProtected.PUT("/:id/blocks/:blockId", blockController.UpdateBlock)
			coursesProtected.DELETE("/:id/blocks/:blockId", blockController.DeleteBlock)

			// Renumbering rewrites every tracking ID in the course; admins only
			coursesAdminProtected := coursesProtected.Group("")
			coursesAdminProtected.Use(authMiddleware.RoleRequired(string(models.RoleAdmin)))
			{
				coursesAdminProtected.POST("/:id/reset-tracking-ids", courseController.ResetTrackingIDs)
			}
		}
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, dto.APIResponse{
			Data: gin.H{"status": "ok"},
		})
	})
}
