package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/back-sos/sos-bdd/internal/denuncia"
	"github.com/back-sos/sos-bdd/pkg/twincore"
)

// resultBody is the wire form of a denuncia.Result. Reports are always
// served through their public view.
type resultBody struct {
	denuncia.Result
	Data *denuncia.Report `json:"data,omitempty"`
}

type listBody struct {
	Success    bool              `json:"success"`
	StatusCode int               `json:"status_code"`
	Data       []denuncia.Report `json:"data"`
	HasMore    bool              `json:"has_more"`
	Cursor     string            `json:"cursor,omitempty"`
	Total      int               `json:"total"`
}

func writeResult(w http.ResponseWriter, res denuncia.Result) {
	body := resultBody{Result: res}
	if res.Report != nil {
		pub := res.Report.Public()
		body.Data = &pub
	}
	twincore.JSON(w, res.StatusCode, body)
}

// CreateDenuncia handles POST /api/denuncias. The session of the bearer
// token is held only for the duration of the call.
func (h *Handler) CreateDenuncia(w http.ResponseWriter, r *http.Request) {
	var in denuncia.ReportInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		twincore.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	userID, _ := r.Context().Value(userIDKey).(string)
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	h.mu.Lock()
	h.client.Authenticate(userID, token)
	res := h.client.CreateReport(in)
	h.client.Logout()
	h.mu.Unlock()

	if res.Success {
		h.created.WithLabelValues(res.Report.Tipo).Inc()
	}
	writeResult(w, res)
}

// GetDenuncia handles GET /api/denuncias/{id}.
func (h *Handler) GetDenuncia(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	res := h.client.GetReport(chi.URLParam(r, "id"))
	h.mu.Unlock()
	writeResult(w, res)
}

// GetDenunciaByProtocol handles GET /api/protocolos/{protocol}.
func (h *Handler) GetDenunciaByProtocol(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	res := h.client.GetReportByProtocol(chi.URLParam(r, "protocol"))
	h.mu.Unlock()
	writeResult(w, res)
}

// ListDenuncias handles GET /api/denuncias?limit=&starting_after=.
func (h *Handler) ListDenuncias(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			twincore.Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	h.mu.Lock()
	page := h.client.PageReports(r.URL.Query().Get("starting_after"), limit)
	h.mu.Unlock()

	data := make([]denuncia.Report, 0, len(page.Data))
	for _, rep := range page.Data {
		data = append(data, rep.Public())
	}
	twincore.JSON(w, http.StatusOK, listBody{
		Success:    true,
		StatusCode: http.StatusOK,
		Data:       data,
		HasMore:    page.HasMore,
		Cursor:     page.Cursor,
		Total:      page.Total,
	})
}
