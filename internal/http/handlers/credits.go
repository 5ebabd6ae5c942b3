package handlers

import (
	"net/http"
	"time"

	"reelcraft/internal/domain"
)

func (a *App) CreditBalance(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	balance, err := a.Ledger.Balance(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("credits: balance lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load balance")
		return
	}
	a.json(w, http.StatusOK, map[string]int{"credits": balance})
}

type transactionView struct {
	ID           string    `json:"id"`
	Amount       int       `json:"amount"`
	Type         string    `json:"type"`
	RelatedJobID string    `json:"related_job_id,omitempty"`
	PaymentRef   string    `json:"payment_ref,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *App) CreditHistory(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	txs, err := a.Ledger.History(r.Context(), userID, 100)
	if err != nil {
		a.Logger.Error().Err(err).Msg("credits: history lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load history")
		return
	}
	views := make([]transactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, transactionView{
			ID:           tx.ID,
			Amount:       tx.Amount,
			Type:         string(tx.Type),
			RelatedJobID: tx.RelatedJobID,
			PaymentRef:   tx.PaymentRef,
			CreatedAt:    tx.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"transactions": views})
}

type planView struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Credits       int     `json:"credits"`
	PriceUSD      int     `json:"price_usd"`
	PricePerVideo float64 `json:"price_per_video"`
}

func (a *App) ListPlans(w http.ResponseWriter, r *http.Request) {
	views := make([]planView, 0)
	for _, p := range domain.Plans() {
		views = append(views, planView{
			ID:            p.ID,
			Name:          p.Name,
			Credits:       p.Credits,
			PriceUSD:      p.PriceUSD,
			PricePerVideo: p.PricePerVideo,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"plans": views})
}
