package handlers

import (
	"net/http"

	"github.com/dom/rfid-attendance/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SeasonHandler struct {
	seasons *service.SeasonService
	log     *zap.Logger
}

func NewSeasonHandler(seasons *service.SeasonService, log *zap.Logger) *SeasonHandler {
	return &SeasonHandler{seasons: seasons, log: log}
}

type createSeasonRequest struct {
	SeasonStartDate string `json:"seasonStartDate" validate:"required"`
}

func (h *SeasonHandler) List(w http.ResponseWriter, r *http.Request) {
	dates, err := h.seasons.ListSeasons(r.Context())
	if err != nil {
		respondError(w, r, h.log, err, "Failed to fetch seasons")
		return
	}
	respondOK(w, envelope{"data": dates, "count": len(dates)})
}

func (h *SeasonHandler) Get(w http.ResponseWriter, r *http.Request) {
	rows, err := h.seasons.GetSeason(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		respondError(w, r, h.log, err, "Failed to fetch season data")
		return
	}
	respondOK(w, envelope{"data": rows, "count": len(rows)})
}

func (h *SeasonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSeasonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.seasons.CreateSeason(r.Context(), req.SeasonStartDate)
	if err != nil {
		respondError(w, r, h.log, err, "Failed to create season")
		return
	}

	respondCreated(w, envelope{
		"message":         "New season created successfully",
		"seasonStartDate": result.SeasonStartDate,
	})
}
