package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"brickvest/service"
)

// respond writes the uniform success envelope
func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
		"message": message,
	})
}

// respondError maps domain errors onto HTTP statuses. Handlers stay
// agnostic of which service call failed; only the error type matters.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var (
		validationErr   *service.ValidationError
		eligibilityErr  *service.EligibilityError
		stateErr        *service.InvalidStateError
		notFoundErr     *service.NotFoundError
		insufficientErr *service.InsufficientFundsError
	)
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &eligibilityErr):
		status = http.StatusBadRequest
	case errors.As(err, &stateErr):
		status = http.StatusConflict
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.As(err, &insufficientErr):
		status = http.StatusPaymentRequired
	case service.IsRetryable(err):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		log.WithError(err).Error("Request failed")
	}

	c.JSON(status, gin.H{
		"success": false,
		"message": err.Error(),
	})
}
