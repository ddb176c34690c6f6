package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MarkoPoloResearchLab/fortress/pkg/player"
)

const (
	errorCodeAccountNotFound   = "account_not_found"
	errorCodeItemNotFound      = "item_not_found"
	errorCodeCategoryMismatch  = "category_mismatch"
	errorCodeItemUnavailable   = "item_unavailable"
	errorCodeAlreadyOwned      = "already_owned"
	errorCodeInsufficientFunds = "insufficient_funds"
	errorCodeNotOwned          = "not_owned"
	errorCodeHandleTaken       = "handle_taken"
	errorCodeInvalidPayload    = "invalid_payload"
	errorCodeStorageError      = "storage_error"
)

// respondDomainError maps each domain error to a distinct status and stable
// code so clients can react per outcome.
func respondDomainError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, player.ErrAccountNotFound):
		ctx.JSON(http.StatusNotFound, errorResponse(errorCodeAccountNotFound, "account not found"))
	case errors.Is(err, player.ErrItemNotFound):
		ctx.JSON(http.StatusNotFound, errorResponse(errorCodeItemNotFound, "item not found"))
	case errors.Is(err, player.ErrCategoryMismatch):
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeCategoryMismatch, "item category mismatch"))
	case errors.Is(err, player.ErrItemUnavailable):
		ctx.JSON(http.StatusConflict, errorResponse(errorCodeItemUnavailable, "item not available for purchase"))
	case errors.Is(err, player.ErrAlreadyOwned):
		ctx.JSON(http.StatusConflict, errorResponse(errorCodeAlreadyOwned, "item already owned"))
	case errors.Is(err, player.ErrInsufficientFunds):
		ctx.JSON(http.StatusConflict, errorResponse(errorCodeInsufficientFunds, "not enough currency"))
	case errors.Is(err, player.ErrNotOwned):
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeNotOwned, "item not owned"))
	case errors.Is(err, player.ErrHandleTaken):
		ctx.JSON(http.StatusConflict, errorResponse(errorCodeHandleTaken, "username is already taken"))
	case errors.Is(err, player.ErrInvalidHandle),
		errors.Is(err, player.ErrInvalidItemID),
		errors.Is(err, player.ErrInvalidWeaponName),
		errors.Is(err, player.ErrInvalidCategory),
		errors.Is(err, player.ErrInvalidStats):
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, err.Error()))
	default:
		ctx.JSON(http.StatusInternalServerError, errorResponse(errorCodeStorageError, "internal error"))
	}
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}
