package handler

import (
	"net/http"

	domainerr "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	"github.com/fairwaymarket/escrow-processor/internal/domain/usecase/escrow"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// respondError maps a domain error to the HTTP response
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case domainerr.IsNotFoundError(err):
		status = http.StatusNotFound
		message = err.Error()
	case domainerr.IsAuthorizationError(err):
		status = http.StatusForbidden
		message = err.Error()
	case domainerr.IsPreconditionError(err):
		status = http.StatusConflict
		message = err.Error()
	case domainerr.IsHoldClaimedError(err), domainerr.IsPayoutConflictError(err):
		status = http.StatusConflict
		message = err.Error()
	case err == domainerr.ErrInvalidAmount || err == domainerr.ErrInvalidRequest ||
		err == domainerr.ErrInvalidSplit:
		status = http.StatusBadRequest
		message = err.Error()
	}

	c.JSON(status, dto.ErrorResponse{
		Code:    domainerr.ErrorCode(err),
		Message: message,
	})
}

// actorFromRequest builds the acting principal from the gateway's identity
// headers. The gateway authenticates callers; this service only checks that
// the identity matches the transaction's parties. The system role belongs
// to internal jobs and never arrives over HTTP, so it is stripped here and
// the party check rejects the caller downstream.
func actorFromRequest(c *gin.Context) escrow.Actor {
	role := escrow.Role(c.GetHeader("X-Actor-Role"))
	if role == escrow.RoleSystem {
		role = ""
	}
	return escrow.Actor{
		ID:   c.GetHeader("X-Actor-ID"),
		Role: role,
	}
}
