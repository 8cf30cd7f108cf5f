// README: Tap handlers: the reader endpoint and trip history.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"citypass/internal/modules/tap"
	"citypass/internal/types"
)

type TapHandler struct {
	tap *tap.Service
}

func NewTapHandler(svc *tap.Service) *TapHandler {
	return &TapHandler{tap: svc}
}

type tapReq struct {
	CardID      string  `json:"card_id"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	VehicleType string  `json:"vehicle_type"`
}

type tapResp struct {
	Direction     string `json:"direction"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
}

// Tap handles a reader tap. The service decides whether it is a tap-in or a
// tap-out from the card's current state.
func (h *TapHandler) Tap(c *gin.Context) {
	var req tapReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !isValidID(req.CardID) {
		writeError(c, http.StatusBadRequest, "invalid card id")
		return
	}
	res, err := h.tap.Tap(c.Request.Context(), tap.TapCommand{
		CardID:      types.ID(req.CardID),
		Location:    types.Point{Lat: req.Lat, Lng: req.Lng},
		VehicleType: req.VehicleType,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, tapResp{
		Direction:     string(res.Direction),
		TransactionID: string(res.TransactionID),
		Amount:        res.Amount.String(),
	})
}

type transactionResp struct {
	TransactionID string  `json:"transaction_id"`
	CardID        string  `json:"card_id"`
	Status        string  `json:"status"`
	VehicleClass  string  `json:"vehicle_class"`
	TapIn         string  `json:"tap_in"`
	TapOut        *string `json:"tap_out,omitempty"`
	Amount        string  `json:"amount"`
	CreatedAt     string  `json:"created_at"`
}

func (h *TapHandler) History(c *gin.Context) {
	cardID := c.Query("card_id")
	if !isValidID(cardID) {
		writeError(c, http.StatusBadRequest, "invalid card id")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	history, err := h.tap.History(c.Request.Context(), types.ID(cardID), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]transactionResp, 0, len(history))
	for _, t := range history {
		out = append(out, convertTransaction(t))
	}
	writeJSON(c, http.StatusOK, gin.H{"transactions": out})
}

func (h *TapHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid transaction id")
		return
	}
	t, err := h.tap.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, convertTransaction(*t))
}

func convertTransaction(t tap.Transaction) transactionResp {
	r := transactionResp{
		TransactionID: string(t.ID),
		CardID:        string(t.CardID),
		Status:        string(t.Status),
		VehicleClass:  string(t.VehicleClass),
		TapIn:         t.TapIn.String(),
		Amount:        t.Amount.String(),
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
	if t.TapOut != nil {
		s := t.TapOut.String()
		r.TapOut = &s
	}
	return r
}
