package handler

import (
	"errors"
	"net/http"

	"partdepot/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps the service error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is a 500 with a generic body — internals are
// never leaked to clients.
func respondError(c *gin.Context, err error) {
	var ve *apierror.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusUnprocessableEntity, ve)
		return
	}
	var nf *apierror.NotFoundError
	if errors.As(err, &nf) {
		c.JSON(http.StatusNotFound, nf)
		return
	}
	var conflict *apierror.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, conflict)
		return
	}
	_ = c.Error(err) // picked up by the ErrorHandler middleware for logging
	c.JSON(http.StatusInternalServerError, apierror.New("internal server error"))
}
