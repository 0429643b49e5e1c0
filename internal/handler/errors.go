package handler

import (
	"errors"
	"fmt"
	"net/http"

	"credential_service/internal/service"

	"github.com/gin-gonic/gin"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrAccountExists, http.StatusConflict},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrNotVerified, http.StatusForbidden},
	{service.ErrAlreadyVerified, http.StatusConflict},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrNoOTPSet, http.StatusBadRequest},
	{service.ErrOTPExpired, http.StatusBadRequest},
	{service.ErrInvalidOTP, http.StatusBadRequest},
	{service.ErrInvalidToken, http.StatusUnauthorized},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrProfileIncomplete, http.StatusForbidden},
}

// respondError maps a service error to its HTTP status. Unknown errors,
// storage failures included, are logged through c.Error and hidden.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrMissingCredential) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	for _, es := range errorStatuses {
		if errors.Is(err, es.err) {
			c.JSON(es.status, gin.H{"success": false, "message": es.err.Error()})
			return
		}
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
}

// respondValidation rejects a request that failed binding. The error is
// attached to the context as ErrValidation for the access log.
func respondValidation(c *gin.Context, err error) {
	_ = c.Error(fmt.Errorf("%w: %w", service.ErrValidation, err)).SetType(gin.ErrorTypeBind)
	msgs := validationMessages(err)
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgs[0], "errors": msgs})
}
