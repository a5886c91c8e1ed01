package api

import (
	"encoding/json"
	"net/http"

	"ordersense/internal/domain"
)

type queryRequest struct {
	Query      string `json:"query"`
	DataSource string `json:"dataSource"`
}

type queryResponse struct {
	Answer  string       `json:"answer"`
	Results []domain.Row `json:"results"`
}

// Query answers a natural-language question. The response always
// carries an answer and a results array; only input errors (empty
// query, unknown source) produce an error status.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.insight.Ask(r.Context(), req.Query, req.DataSource)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, queryResponse{
		Answer:  result.Answer,
		Results: result.Results,
	})
}
