// README: Card handlers: registration, listing, top-up.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"citypass/internal/modules/card"
	"citypass/internal/types"
)

type CardHandler struct {
	cards *card.Service
}

func NewCardHandler(svc *card.Service) *CardHandler {
	return &CardHandler{cards: svc}
}

type registerCardReq struct {
	UserID            string `json:"user_id"`
	FinanceCardNumber string `json:"finance_card_number"`
}

type cardResp struct {
	CardID            string `json:"card_id"`
	UserID            string `json:"user_id"`
	FinanceCardNumber string `json:"finance_card_number"`
	Status            string `json:"status"`
	Balance           string `json:"balance"`
}

func (h *CardHandler) Register(c *gin.Context) {
	var req registerCardReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cd, err := h.cards.Register(c.Request.Context(), card.RegisterCommand{
		UserID:            types.ID(req.UserID),
		FinanceCardNumber: req.FinanceCardNumber,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, convertCard(cd))
}

func (h *CardHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid card id")
		return
	}
	cd, err := h.cards.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, convertCard(cd))
}

func (h *CardHandler) ListByUser(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		writeError(c, http.StatusBadRequest, "missing user id")
		return
	}
	cards, err := h.cards.ListByUser(c.Request.Context(), types.ID(userID))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]cardResp, 0, len(cards))
	for i := range cards {
		out = append(out, convertCard(&cards[i]))
	}
	writeJSON(c, http.StatusOK, gin.H{"cards": out})
}

type topUpReq struct {
	Amount string `json:"amount"`
}

func (h *CardHandler) TopUp(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid card id")
		return
	}
	var req topUpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid amount")
		return
	}
	cd, err := h.cards.TopUp(c.Request.Context(), card.TopUpCommand{
		CardID: types.ID(id),
		Amount: types.FromDecimal(amount),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, convertCard(cd))
}

func convertCard(cd *card.Card) cardResp {
	return cardResp{
		CardID:            string(cd.ID),
		UserID:            string(cd.UserID),
		FinanceCardNumber: cd.FinanceCardNumber,
		Status:            string(cd.Status),
		Balance:           cd.Balance.String(),
	}
}
