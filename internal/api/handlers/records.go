package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dom/rfid-attendance/internal/domain"
	"github.com/dom/rfid-attendance/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RecordHandler struct {
	records *service.RecordService
	log     *zap.Logger
}

func NewRecordHandler(records *service.RecordService, log *zap.Logger) *RecordHandler {
	return &RecordHandler{records: records, log: log}
}

type updateRecordRequest struct {
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Notes     *string    `json:"notes" validate:"omitempty,max=500"`
}

// List accepts userId, startDate, endDate (RFC 3339 or YYYY-MM-DD) and limit.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter domain.RecordFilter

	if v := q.Get("userId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "userId is invalid")
			return
		}
		filter.UserID = &id
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"startDate", &filter.StartDate},
		{"endDate", &filter.EndDate},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		t, err := parseTimeParam(v)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, p.name+" is invalid")
			return
		}
		*p.dst = &t
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			respondMessage(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	records, err := h.records.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, h.log, err, "Failed to fetch records")
		return
	}
	respondOK(w, envelope{"data": records, "count": len(records)})
}

func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.records.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err, "Failed to fetch record")
		return
	}
	respondOK(w, envelope{"data": record})
}

func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	record, err := h.records.Update(r.Context(), chi.URLParam(r, "id"), domain.RecordPatch{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     req.Notes,
	})
	if err != nil {
		respondError(w, r, h.log, err, "Failed to update record")
		return
	}

	respondOK(w, envelope{
		"message": "Record updated successfully",
		"data":    record,
	})
}

func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.records.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.log, err, "Failed to delete record")
		return
	}
	respondOK(w, envelope{"message": "Record deleted successfully"})
}

func parseTimeParam(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation(domain.SeasonDateLayout, v, time.UTC)
}
