package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"quadra/internal/core"
)

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.finance.Balance(r.Context(), memberFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"balance_cents": balance.Cents,
		"balance":       balance.Format(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, year := parseMonthYear(r)

	totals, err := s.finance.MonthlyTotals(r.Context(), memberFrom(r), month, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":          month,
		"year":           year,
		"income_cents":   totals.Income.Cents,
		"income":         totals.Income.Format(),
		"expenses_cents": totals.Expenses.Cents,
		"expenses":       totals.Expenses.Format(),
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.finance.History(r.Context(), memberFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Without a month/year selection the full history comes back.
	q := r.URL.Query()
	if q.Get("month") != "" || q.Get("year") != "" {
		month, year := parseMonthYear(r)
		filtered := txs[:0]
		for _, t := range txs {
			if t.Month == month && t.Year == year {
				filtered = append(filtered, t)
			}
		}
		txs = filtered
	}

	out := make([]transactionDTO, len(txs))
	for i, t := range txs {
		out[i] = toTransactionDTO(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

type createTransactionRequest struct {
	MemberID    string `json:"member_id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"` // decimal, "100.00" or "100,00"
	Date        string `json:"date"`   // "2006-01-02", defaults to today
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, want YYYY-MM-DD"})
			return
		}
	}

	t, err := s.finance.AddTransaction(r.Context(), memberFrom(r), core.Transaction{
		MemberID:    req.MemberID,
		Type:        core.TransactionType(req.Type),
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.finance.DeleteTransaction(r.Context(), memberFrom(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
