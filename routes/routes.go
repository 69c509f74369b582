package routes

import (
	"net/http"
	"time"

	"toolrent-content/handlers"
	"toolrent-content/middleware"
	"toolrent-content/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Article  *handlers.ArticleHandler
	Category *handlers.CategoryHandler
}

// Setup builds the gin engine with middleware and every API route.
func Setup(h Handlers, jwtSecret string, log zerolog.Logger) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "toolrent-content",
		})
	})

	staff := middleware.RequireRole(string(models.RoleAdmin), string(models.RoleEditor))

	v1 := router.Group("/api/v1")
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		// Public article routes (published only)
		public := v1.Group("/public")
		{
			public.GET("/articles", h.Article.GetPublicArticles)
			public.GET("/articles/featured", h.Article.GetFeaturedArticles)
			public.GET("/articles/latest", h.Article.GetLatestArticles)
			public.GET("/articles/:id", h.Article.GetPublicArticle)
			public.GET("/categories", h.Category.GetCategories)
		}

		// Protected routes
		protected := v1.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			protected.GET("/profile", h.Auth.GetProfile)

			articles := protected.Group("/articles")
			{
				articles.GET("", h.Article.GetArticles)
				articles.GET("/:id", h.Article.GetArticle)
				articles.POST("", staff, h.Article.CreateArticle)
				articles.PUT("/:id", staff, h.Article.UpdateArticle)
				articles.DELETE("/:id", staff, h.Article.DeleteArticle)
				articles.PATCH("/:id/publish", staff, h.Article.TogglePublish)
				articles.PATCH("/:id/feature", staff, h.Article.ToggleFeatured)
			}

			categories := protected.Group("/categories")
			{
				categories.GET("", h.Category.GetCategories)
				categories.GET("/:ref", h.Category.GetCategory)
				categories.POST("", middleware.RequireRole(string(models.RoleAdmin)), h.Category.CreateCategory)
			}
		}
	}

	return router
}
