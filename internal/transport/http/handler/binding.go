package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mealtracker/internal/transport/http/response"
	"mealtracker/internal/validation"
)

const isoMillis = "2006-01-02T15:04:05.000Z"

// bindJSON decodes and validates the body into dst. Violations found earlier,
// such as a bad path parameter, are reported together with the body's. It
// writes the 400 itself and returns false when anything failed.
func bindJSON(c *gin.Context, v *validation.Validator, dst any, prior validation.Errors) bool {
	body, err := c.GetRawData()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return false
	}

	errs := append(prior, v.DecodeJSON(body, dst)...)
	if len(errs) > 0 {
		response.ValidationFailed(c, errs)
		return false
	}
	return true
}
