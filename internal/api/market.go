package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"example.com/johar/internal/market"
)

type itemRequest struct {
	Title  string          `json:"title" validate:"required,max=200"`
	Price  decimal.Decimal `json:"price"`
	Seller string          `json:"seller" validate:"required,max=200"`
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": s.market.List(r.Context())})
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	item, err := s.market.AddItem(r.Context(), req.Title, req.Price, req.Seller)
	if errors.Is(err, market.ErrNegativePrice) {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "add item: %v", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	tx, found, err := s.market.Buy(r.Context(), itemID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "buy item: %v", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "%v", market.ErrItemNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"transactions": s.market.Transactions(r.Context())})
}
