package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/shopmart/internal/domain/errors"
	"github.com/polkiloo/shopmart/internal/server/http/dto"
)

// StatusFor maps a domain error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainErrors.ErrInvalidInput),
		errors.Is(err, domainErrors.ErrEmptyCart),
		errors.Is(err, domainErrors.ErrLimitExceeded):
		return http.StatusBadRequest
	case errors.Is(err, domainErrors.ErrInsufficientStock),
		errors.Is(err, domainErrors.ErrAlreadyPaid),
		errors.Is(err, domainErrors.ErrInvalidTransition),
		errors.Is(err, domainErrors.ErrAlreadyExists),
		errors.Is(err, domainErrors.ErrInUse):
		return http.StatusConflict
	case errors.Is(err, domainErrors.ErrForbidden),
		errors.Is(err, domainErrors.ErrNotVerified):
		return http.StatusForbidden
	case errors.Is(err, domainErrors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domainErrors.ErrPayment):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body and attaches err for the request logger.
func respondError(c *gin.Context, err error) {
	status := StatusFor(err)
	_ = c.Error(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg})
}
