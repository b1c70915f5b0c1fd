package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mealtracker/internal/app"
	"mealtracker/internal/model"
	"mealtracker/internal/transport/http/middleware"
	"mealtracker/internal/transport/http/response"
	"mealtracker/internal/validation"
)

type MealHandler struct {
	mealService *app.MealService
	validator   *validation.Validator
	logger      *zap.Logger
}

// MealRequest is the full payload for both create and update.
type MealRequest struct {
	Name        string `json:"name" validate:"required,notblank,max=255"`
	Description string `json:"description" validate:"required,notblank,max=1024"`
	Date        string `json:"date" validate:"required,mealdate"`
	IsOnDiet    *bool  `json:"isOnDiet" validate:"required"`
}

type mealView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
	IsOnDiet    bool   `json:"isOnDiet"`
}

type activityView struct {
	MealID     string `json:"mealId"`
	Action     string `json:"action"`
	OccurredAt string `json:"occurredAt"`
}

func NewMealHandler(mealService *app.MealService, v *validation.Validator, logger *zap.Logger) *MealHandler {
	return &MealHandler{
		mealService: mealService,
		validator:   v,
		logger:      logger,
	}
}

func (h *MealHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
		return
	}

	var req MealRequest
	if !bindJSON(c, h.validator, &req, nil) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.fail(c, err, "create meal")
		return
	}

	if _, err := h.mealService.Create(c.Request.Context(), user, input); err != nil {
		h.fail(c, err, "create meal")
		return
	}
	response.Empty(c, http.StatusCreated)
}

func (h *MealHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
		return
	}

	meals, err := h.mealService.List(c.Request.Context(), user)
	if err != nil {
		h.fail(c, err, "list meals")
		return
	}

	views := make([]mealView, 0, len(meals))
	for _, meal := range meals {
		views = append(views, newMealView(meal))
	}
	response.OK(c, gin.H{"meals": views})
}

func (h *MealHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
		return
	}

	mealID := c.Param("mealId")
	if errs := h.validator.Var("mealId", mealID, "uuid"); len(errs) > 0 {
		response.ValidationFailed(c, errs)
		return
	}

	meal, err := h.mealService.Get(c.Request.Context(), user, mealID)
	if err != nil {
		h.fail(c, err, "get meal")
		return
	}
	response.OK(c, gin.H{"meal": newMealView(*meal)})
}

func (h *MealHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
		return
	}

	mealID := c.Param("mealId")
	var req MealRequest
	if !bindJSON(c, h.validator, &req, h.validator.Var("mealId", mealID, "uuid")) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.fail(c, err, "update meal")
		return
	}

	if err := h.mealService.Update(c.Request.Context(), user, mealID, input); err != nil {
		h.fail(c, err, "update meal")
		return
	}
	response.Empty(c, http.StatusNoContent)
}

func (h *MealHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
		return
	}

	mealID := c.Param("mealId")
	if errs := h.validator.Var("mealId", mealID, "uuid"); len(errs) > 0 {
		response.ValidationFailed(c, errs)
		return
	}

	if err := h.mealService.Delete(c.Request.Context(), user, mealID); err != nil {
		h.fail(c, err, "delete meal")
		return
	}
	response.Empty(c, http.StatusNoContent)
}

func (h *MealHandler) Metrics(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
		return
	}

	metrics, err := h.mealService.Metrics(c.Request.Context(), user)
	if err != nil {
		h.fail(c, err, "compute meal metrics")
		return
	}
	response.OK(c, gin.H{"metrics": metrics})
}

func (h *MealHandler) Activity(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.ValidationFailed(c, validation.Errors{{Path: "limit", Message: "Expected number, received string"}})
			return
		}
		if errs := h.validator.Var("limit", parsed, "gte=1,lte=200"); len(errs) > 0 {
			response.ValidationFailed(c, errs)
			return
		}
		limit = parsed
	}

	rows, err := h.mealService.Activity(c.Request.Context(), user, limit)
	if err != nil {
		h.fail(c, err, "list meal activity")
		return
	}

	views := make([]activityView, 0, len(rows))
	for _, row := range rows {
		views = append(views, activityView{
			MealID:     row.MealID,
			Action:     row.Action,
			OccurredAt: row.OccurredAt.UTC().Format(isoMillis),
		})
	}
	response.OK(c, gin.H{"activity": views})
}

func (h *MealHandler) fail(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, app.ErrUnauthenticated):
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrMealNotFound):
		response.Error(c, http.StatusNotFound, response.CodeMealNotFound, "Meal not found")
	default:
		h.logger.Error(action+" failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "Internal Server Error")
	}
}

func (r MealRequest) toInput() (app.MealInput, error) {
	date, err := validation.ParseDate(r.Date)
	if err != nil || r.IsOnDiet == nil {
		return app.MealInput{}, app.ErrInvalidInput
	}
	return app.MealInput{
		Name:        r.Name,
		Description: r.Description,
		Date:        date,
		IsOnDiet:    *r.IsOnDiet,
	}, nil
}

func newMealView(meal model.Meal) mealView {
	return mealView{
		ID:          meal.ID,
		Name:        meal.Name,
		Description: meal.Description,
		Date:        meal.Date.UTC().Format(isoMillis),
		IsOnDiet:    meal.IsOnDiet,
	}
}
