package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"watersower/models"

	"github.com/go-chi/chi/v5"
)

// demoScenarios are the landing-page presets a farmer can load with one tap.
var demoScenarios = map[string]models.FarmRecord{
	"water": {
		State:          "Karnataka",
		District:       "Bangalore Urban",
		RainfallMm:     800,
		GroundwaterBcm: 5, // low recharge, high-water crop
		CropHistory:    "Sugarcane",
	},
	"crop": {
		State:          "Punjab",
		District:       "Ludhiana",
		RainfallMm:     600,
		GroundwaterBcm: 12,
		CropHistory:    "Wheat",
	},
	"risk": {
		State:          "Maharashtra",
		District:       "Pune",
		RainfallMm:     400,
		GroundwaterBcm: 2,
		CropHistory:    "Rice",
	},
}

// handleFarmSnapshot returns the current record plus the option lists.
func (a *App) handleFarmSnapshot(w http.ResponseWriter, r *http.Request) {
	us, ok := a.session(mustSubject(r))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(us.builder.Snapshot())
}

// handleSetState/District/Year/Season/Crop apply one selection each and
// return the refreshed snapshot so the client can re-render dependent lists.

func (a *App) handleSetState(w http.ResponseWriter, r *http.Request) {
	a.applyEdit(w, r, func(us *userSession, value string) error {
		us.builder.SetState(value)
		return nil
	})
}

func (a *App) handleSetDistrict(w http.ResponseWriter, r *http.Request) {
	a.applyEdit(w, r, func(us *userSession, value string) error {
		return us.builder.SetDistrict(value)
	})
}

func (a *App) handleSetYear(w http.ResponseWriter, r *http.Request) {
	a.applyEdit(w, r, func(us *userSession, value string) error {
		return us.builder.SetYear(value)
	})
}

func (a *App) handleSetSeason(w http.ResponseWriter, r *http.Request) {
	a.applyEdit(w, r, func(us *userSession, value string) error {
		return us.builder.SetSeason(models.Season(value))
	})
}

func (a *App) handleSetCrop(w http.ResponseWriter, r *http.Request) {
	a.applyEdit(w, r, func(us *userSession, value string) error {
		return us.builder.SetCrop(value)
	})
}

// handleSetField applies a free-text edit to rainfall or groundwater.
func (a *App) handleSetField(w http.ResponseWriter, r *http.Request) {
	us, ok := a.session(mustSubject(r))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	var req setFieldReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := us.builder.SetField(req.Name, req.Value); err != nil {
		writeValidationError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(us.builder.Snapshot())
}

// handleFarmReset starts a new prediction cycle with an empty record.
func (a *App) handleFarmReset(w http.ResponseWriter, r *http.Request) {
	us, ok := a.session(mustSubject(r))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	us.builder.Reset()
	us.verdictMu.Lock()
	us.lastVerdict = nil
	us.lastRecord = nil
	us.verdictMu.Unlock()
	_ = json.NewEncoder(w).Encode(us.builder.Snapshot())
}

// handleDemoScenario loads a named preset into the caller's builder.
func (a *App) handleDemoScenario(w http.ResponseWriter, r *http.Request) {
	us, ok := a.session(mustSubject(r))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	rec, ok := demoScenarios[chi.URLParam(r, "scenario")]
	if !ok {
		http.Error(w, "unknown scenario", http.StatusNotFound)
		return
	}
	us.builder.ApplyScenario(rec)
	_ = json.NewEncoder(w).Encode(us.builder.Snapshot())
}

func (a *App) applyEdit(w http.ResponseWriter, r *http.Request, edit func(*userSession, string) error) {
	us, ok := a.session(mustSubject(r))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	var req setValueReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := edit(us, req.Value); err != nil {
		writeValidationError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(us.builder.Snapshot())
}

// writeValidationError renders a ValidationError as 422 with the per-field
// reasons; anything else falls back to a 400.
func writeValidationError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":  "validation failed",
			"fields": verr.Problems,
		})
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}
