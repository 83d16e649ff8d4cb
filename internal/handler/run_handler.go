// internal/handler/run_handler.go
package handler

import (
    "encoding/json"
    "errors"
    "net/http"
    "strconv"

    "github.com/go-chi/chi/v5"

    appErrors "github.com/designgaga/outreach-backend/internal/errors"
    "github.com/designgaga/outreach-backend/internal/model"
    "github.com/designgaga/outreach-backend/internal/scheduler"
    "github.com/designgaga/outreach-backend/internal/service"
)

// RunHandler holds the dependencies for run, channel, and contact HTTP
// handlers.
type RunHandler struct {
    Service   *service.CampaignService
    Scheduler *scheduler.Scheduler
}

func writeError(w http.ResponseWriter, err error) {
    var verr *appErrors.ValidationError
    if errors.As(err, &verr) {
        http.Error(w, err.Error(), http.StatusUnprocessableEntity)
        return
    }
    var rnf *appErrors.ErrRunNotFound
    var cnf *appErrors.ErrContactNotFound
    if errors.As(err, &rnf) || errors.As(err, &cnf) {
        http.Error(w, err.Error(), http.StatusNotFound)
        return
    }
    http.Error(w, err.Error(), http.StatusInternalServerError)
}

func runID(r *http.Request) (int, error) {
    return strconv.Atoi(chi.URLParam(r, "id"))
}

// ResumeRunHandler moves a paused run back to active.
func (h *RunHandler) ResumeRunHandler(w http.ResponseWriter, r *http.Request) {
    id, err := runID(r)
    if err != nil {
        http.Error(w, "invalid run id", http.StatusBadRequest)
        return
    }

    run, err := h.Service.ResumeRun(r.Context(), id)
    if err != nil {
        writeError(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(run)
}

// CancelRunHandler marks a run failed.
func (h *RunHandler) CancelRunHandler(w http.ResponseWriter, r *http.Request) {
    id, err := runID(r)
    if err != nil {
        http.Error(w, "invalid run id", http.StatusBadRequest)
        return
    }

    run, err := h.Service.CancelRun(r.Context(), id)
    if err != nil {
        writeError(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(run)
}

// RunHistoryHandler returns the ordered send attempts of one run.
func (h *RunHandler) RunHistoryHandler(w http.ResponseWriter, r *http.Request) {
    id, err := runID(r)
    if err != nil {
        http.Error(w, "invalid run id", http.StatusBadRequest)
        return
    }

    history, err := h.Service.RunHistory(r.Context(), id)
    if err != nil {
        writeError(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{"data": history})
}

// ChannelStatsHandler reports today's quota consumption for a channel.
func (h *RunHandler) ChannelStatsHandler(w http.ResponseWriter, r *http.Request) {
    ch := model.Channel(chi.URLParam(r, "channel"))

    stats, err := h.Service.ChannelStats(r.Context(), ch)
    if err != nil {
        writeError(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(stats)
}

// EngagementHandler records an open or response against a contact.
func (h *RunHandler) EngagementHandler(w http.ResponseWriter, r *http.Request) {
    contactID, err := strconv.Atoi(chi.URLParam(r, "id"))
    if err != nil {
        http.Error(w, "invalid contact id", http.StatusBadRequest)
        return
    }

    var body service.EngagementInput
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    if err := h.Service.RecordEngagement(r.Context(), contactID, body); err != nil {
        writeError(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{"contact_id": contactID, "recorded": true})
}

// SchedulerStatsHandler exposes the polling loop's cumulative counters.
func (h *RunHandler) SchedulerStatsHandler(w http.ResponseWriter, r *http.Request) {
    if h.Scheduler == nil {
        http.Error(w, "scheduler not running in this process", http.StatusServiceUnavailable)
        return
    }
    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(h.Scheduler.Stats())
}
