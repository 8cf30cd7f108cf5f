// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"citypass/internal/ledger"
	"citypass/internal/maps"
	"citypass/internal/modules/card"
	"citypass/internal/modules/routes"
	"citypass/internal/modules/tap"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID ensures IDs are hex and at most 32 chars (matches the ID generator).
func isValidID(v string) bool {
	if v == "" || len(v) > 32 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps module sentinel errors to HTTP statuses. Settlement
// failures are the upstream ledger's fault, so they surface as 502 rather
// than 500.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tap.ErrBadRequest), errors.Is(err, card.ErrBadRequest), errors.Is(err, routes.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, tap.ErrNotFound), errors.Is(err, card.ErrNotFound), errors.Is(err, maps.ErrNoRoute):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, tap.ErrInsufficientFunds),
		errors.Is(err, tap.ErrOpenExists),
		errors.Is(err, tap.ErrInvalidState),
		errors.Is(err, card.ErrCardNumberTaken),
		errors.Is(err, card.ErrCardBlocked),
		errors.Is(err, card.ErrNotLinked):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrSettlementFailed):
		writeError(c, http.StatusBadGateway, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
