// ABOUTME: Gin router for the mirror server: /ping plus the authenticated /api/v1 surface.
// ABOUTME: Route shapes match the paths remote.HTTPMirror calls.
package mirror

import (
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the mirror HTTP handler over store. A nil logger discards
// store error lines.
func NewRouter(store Store, jwtSecret string, logger *log.Logger) *gin.Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	h := &handler{store: store, logger: logger}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	protected := router.Group("/api/v1")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.GET("/me", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"userId": userID(c)})
		})

		workouts := protected.Group("/workouts")
		{
			workouts.POST("", h.createWorkout)
			workouts.GET("", h.listWorkouts)
			workouts.PATCH("/:id", h.updateWorkout)
			workouts.DELETE("/:id", h.deleteWorkout)
			workouts.POST("/:id/exercises", h.createExercise)
			workouts.GET("/:id/exercises", h.listExercises)
		}

		exercises := protected.Group("/exercises")
		{
			exercises.PATCH("/:id", h.updateExercise)
			exercises.DELETE("/:id", h.deleteExercise)
			exercises.POST("/:id/sets", h.createSet)
			exercises.GET("/:id/sets", h.listSets)
		}

		sets := protected.Group("/sets")
		{
			sets.PATCH("/:id", h.updateSet)
			sets.DELETE("/:id", h.deleteSet)
		}
	}

	return router
}
