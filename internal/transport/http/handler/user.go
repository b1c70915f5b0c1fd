package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mealtracker/internal/app"
	"mealtracker/internal/config"
	"mealtracker/internal/transport/http/response"
	"mealtracker/internal/validation"
)

type UserHandler struct {
	authService *app.AuthService
	validator   *validation.Validator
	session     config.SessionConfig
	logger      *zap.Logger
}

type RegisterRequest struct {
	Name  string `json:"name" validate:"required,notblank,max=128"`
	Email string `json:"email" validate:"required,email,max=128"`
}

func NewUserHandler(authService *app.AuthService, v *validation.Validator, session config.SessionConfig, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		authService: authService,
		validator:   v,
		session:     session,
		logger:      logger,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, h.validator, &req, nil) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), app.RegisterInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrEmailExists):
			response.Error(c, http.StatusBadRequest, response.CodeEmailExists, "Email already exists")
		default:
			h.logger.Error("register user failed", zap.Error(err))
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "Internal Server Error")
		}
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		h.session.CookieName,
		user.SessionID,
		h.session.MaxAgeDays*24*60*60,
		"/",
		"",
		h.session.Secure,
		true,
	)

	response.Created(c, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}
