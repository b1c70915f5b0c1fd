package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mealtracker/internal/validation"
)

const (
	CodeOK              = 0
	CodeBadRequest      = 40000
	CodeEmailExists     = 40002
	CodeUnauthorized    = 40100
	CodeMealNotFound    = 40400
	CodeTooManyRequests = 42900
	CodeInternalServer  = 50000
)

type APIResponse struct {
	Code    int                     `json:"code"`
	Message string                  `json:"message"`
	Data    interface{}             `json:"data,omitempty"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Code:    CodeOK,
		Message: "created",
		Data:    data,
	})
}

// Empty writes a status with no body, as used by 201 on meal creation and
// 204 on update and delete.
func Empty(c *gin.Context, status int) {
	c.Status(status)
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

func ValidationFailed(c *gin.Context, errs validation.Errors) {
	c.JSON(http.StatusBadRequest, APIResponse{
		Code:    CodeBadRequest,
		Message: "validation failed",
		Errors:  errs,
	})
}
