// internal/controller/campaign_controller.go
package controller

import (
    "encoding/json"
    "errors"
    "net/http"
    "strconv"

    "github.com/go-chi/chi/v5"

    appErrors "github.com/designgaga/outreach-backend/internal/errors"
    "github.com/designgaga/outreach-backend/internal/service"
)

type CampaignController struct {
    CampaignService *service.CampaignService
}

// writeServiceError maps well-known error types onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
    var verr *appErrors.ValidationError
    if errors.As(err, &verr) {
        http.Error(w, err.Error(), http.StatusUnprocessableEntity)
        return
    }
    var cnf *appErrors.ErrCampaignNotFound
    var rnf *appErrors.ErrRunNotFound
    var conf *appErrors.ErrContactNotFound
    if errors.As(err, &cnf) || errors.As(err, &rnf) || errors.As(err, &conf) {
        http.Error(w, err.Error(), http.StatusNotFound)
        return
    }
    http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    json.NewEncoder(w).Encode(payload)
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
    var body service.CreateCampaignInput
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    def, enrolled, err := c.CampaignService.CreateCampaign(r.Context(), body)
    if err != nil {
        writeServiceError(w, err)
        return
    }

    response := map[string]interface{}{
        "campaign": def.Campaign,
        "steps":    def.Steps,
    }
    if enrolled != nil {
        response["enrolled"] = enrolled
    }
    writeJSON(w, http.StatusCreated, response)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
    page, _ := strconv.Atoi(r.URL.Query().Get("page"))
    pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
    status := r.URL.Query().Get("status")

    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 20
    }

    campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), page, pageSize, status)
    if err != nil {
        writeServiceError(w, err)
        return
    }

    writeJSON(w, http.StatusOK, map[string]interface{}{
        "data":       campaigns,
        "pagination": pagination,
    })
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
    id, err := strconv.Atoi(chi.URLParam(r, "id"))
    if err != nil {
        http.Error(w, "invalid campaign id", http.StatusBadRequest)
        return
    }

    details, err := c.CampaignService.GetCampaignDetails(r.Context(), id)
    if err != nil {
        writeServiceError(w, err)
        return
    }

    writeJSON(w, http.StatusOK, details)
}

func (c *CampaignController) Enroll(w http.ResponseWriter, r *http.Request) {
    id, err := strconv.Atoi(chi.URLParam(r, "id"))
    if err != nil {
        http.Error(w, "invalid campaign id", http.StatusBadRequest)
        return
    }

    var body struct {
        ContactIDs []int `json:"contact_ids"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    result, err := c.CampaignService.Enroll(r.Context(), id, body.ContactIDs)
    if err != nil {
        writeServiceError(w, err)
        return
    }

    writeJSON(w, http.StatusOK, result)
}

func (c *CampaignController) ListRuns(w http.ResponseWriter, r *http.Request) {
    id, err := strconv.Atoi(chi.URLParam(r, "id"))
    if err != nil {
        http.Error(w, "invalid campaign id", http.StatusBadRequest)
        return
    }

    runs, err := c.CampaignService.CampaignRuns(r.Context(), id)
    if err != nil {
        writeServiceError(w, err)
        return
    }

    writeJSON(w, http.StatusOK, map[string]interface{}{"data": runs})
}

func (c *CampaignController) ABTestResults(w http.ResponseWriter, r *http.Request) {
    id, err := strconv.Atoi(chi.URLParam(r, "id"))
    if err != nil {
        http.Error(w, "invalid campaign id", http.StatusBadRequest)
        return
    }
    stepRef := chi.URLParam(r, "stepRef")

    results, err := c.CampaignService.ABTestResults(r.Context(), id, stepRef)
    if err != nil {
        writeServiceError(w, err)
        return
    }

    writeJSON(w, http.StatusOK, map[string]interface{}{
        "campaign_id": id,
        "step_ref":    stepRef,
        "variants":    results,
    })
}
