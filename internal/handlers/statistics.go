package handlers

import (
	"net/http"
)

// Summary reports total, average per day and top category for an optional date range.
// A date-only endDate covers that whole day.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipalFromContext(r)
	q := r.URL.Query()

	start, err := queryDate(q.Get("startDate"), "startDate", false)
	if err != nil {
		respondWithBadParam(w, r, err)
		return
	}
	end, err := queryDate(q.Get("endDate"), "endDate", true)
	if err != nil {
		respondWithBadParam(w, r, err)
		return
	}

	summary, err := h.expenses.Summary(r.Context(), p.UserID, start, end)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// ChartData returns the category breakdown and the monthly trend for dashboard charts.
func (h *Handlers) ChartData(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipalFromContext(r)

	data, err := h.expenses.ChartData(r.Context(), p.UserID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, data)
}
