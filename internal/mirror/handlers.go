// ABOUTME: HTTP handlers for the mirror REST surface.
// ABOUTME: Decodes records and patches, scopes every call to the token's user, maps store errors to statuses.
package mirror

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/harperreed/lift/internal/remote"
)

type handler struct {
	store  Store
	logger *log.Logger
}

// fail writes the response for a store error.
func (h *handler) fail(c *gin.Context, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		abortWithError(c, http.StatusNotFound, op+": record not found")
		return
	}
	h.logger.Error("store call failed", "op", op, "user", userID(c), "err", err)
	abortWithError(c, http.StatusInternalServerError, op+": internal error")
}

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func requireExternalID(c *gin.Context, externalID string) bool {
	if externalID == "" {
		abortWithError(c, http.StatusBadRequest, "external_id is required")
		return false
	}
	return true
}

func (h *handler) createWorkout(c *gin.Context) {
	var rec remote.WorkoutRecord
	if !bind(c, &rec) || !requireExternalID(c, rec.ExternalID) {
		return
	}
	id, err := h.store.CreateWorkout(c.Request.Context(), userID(c), rec)
	if err != nil {
		h.fail(c, "create workout", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *handler) updateWorkout(c *gin.Context) {
	var patch remote.WorkoutPatch
	if !bind(c, &patch) {
		return
	}
	if err := h.store.UpdateWorkout(c.Request.Context(), userID(c), c.Param("id"), patch); err != nil {
		h.fail(c, "update workout", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) deleteWorkout(c *gin.Context) {
	if err := h.store.DeleteWorkout(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.fail(c, "delete workout", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) listWorkouts(c *gin.Context) {
	out, err := h.store.ListWorkouts(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, "list workouts", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) createExercise(c *gin.Context) {
	var rec remote.ExerciseRecord
	if !bind(c, &rec) || !requireExternalID(c, rec.ExternalID) {
		return
	}
	rec.WorkoutID = c.Param("id")
	if rec.Type == "" {
		abortWithError(c, http.StatusBadRequest, "type is required")
		return
	}
	id, err := h.store.CreateExercise(c.Request.Context(), userID(c), rec)
	if err != nil {
		h.fail(c, "create exercise", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *handler) updateExercise(c *gin.Context) {
	var patch remote.ExercisePatch
	if !bind(c, &patch) {
		return
	}
	if err := h.store.UpdateExercise(c.Request.Context(), userID(c), c.Param("id"), patch); err != nil {
		h.fail(c, "update exercise", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) deleteExercise(c *gin.Context) {
	if err := h.store.DeleteExercise(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.fail(c, "delete exercise", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) listExercises(c *gin.Context) {
	out, err := h.store.ListExercises(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.fail(c, "list exercises", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) createSet(c *gin.Context) {
	var rec remote.SetRecord
	if !bind(c, &rec) || !requireExternalID(c, rec.ExternalID) {
		return
	}
	rec.ExerciseID = c.Param("id")
	if (rec.Weight != nil && *rec.Weight < 0) || (rec.Reps != nil && *rec.Reps < 0) {
		abortWithError(c, http.StatusBadRequest, "weight and reps must not be negative")
		return
	}
	id, err := h.store.CreateSet(c.Request.Context(), userID(c), rec)
	if err != nil {
		h.fail(c, "create set", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *handler) updateSet(c *gin.Context) {
	var patch remote.SetPatch
	if !bind(c, &patch) {
		return
	}
	if err := h.store.UpdateSet(c.Request.Context(), userID(c), c.Param("id"), patch); err != nil {
		h.fail(c, "update set", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) deleteSet(c *gin.Context) {
	if err := h.store.DeleteSet(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.fail(c, "delete set", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) listSets(c *gin.Context) {
	out, err := h.store.ListSets(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.fail(c, "list sets", err)
		return
	}
	c.JSON(http.StatusOK, out)
}
