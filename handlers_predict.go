package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"watersower/market"

	"go.uber.org/zap"
)

// handlePredict builds the record, submits it to the prediction service and
// returns the verdict with correlated market insights. At most one request
// per session is in flight; a concurrent submit gets 409.
func (a *App) handlePredict(w http.ResponseWriter, r *http.Request) {
	us, ok := a.session(mustSubject(r))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	rec, err := us.builder.Build()
	if err != nil {
		writeValidationError(w, err)
		return
	}

	if !us.predicting.CompareAndSwap(false, true) {
		http.Error(w, "a prediction is already in progress", http.StatusConflict)
		return
	}
	defer us.predicting.Store(false)

	verdict, err := a.predictor.Predict(r.Context(), rec)
	if err != nil {
		// Generic message to the user; detail stays in the logs. The record
		// is untouched so the farmer can resubmit.
		a.log.Warn("prediction failed", zap.Error(err), zap.String("subject", us.session.SubjectID))
		http.Error(w, "prediction failed, please try again", http.StatusBadGateway)
		return
	}

	us.verdictMu.Lock()
	us.lastVerdict = verdict
	us.lastRecord = &rec
	us.verdictMu.Unlock()

	_ = json.NewEncoder(w).Encode(predictResp{
		Verdict:  *verdict,
		Insights: market.Correlate(a.catalog, *verdict, rec.CropHistory),
	})
}

// handleSendReport delivers the last verdict to a phone number through the
// report sender (mock SMS).
func (a *App) handleSendReport(w http.ResponseWriter, r *http.Request) {
	us, ok := a.session(mustSubject(r))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	var req sendReportReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	us.verdictMu.Lock()
	verdict := us.lastVerdict
	rec := us.lastRecord
	us.verdictMu.Unlock()
	if verdict == nil || rec == nil {
		http.Error(w, "no report to send yet", http.StatusNotFound)
		return
	}

	report := fmt.Sprintf("%s, %s: %s risk, %.1f%% failure probability",
		rec.District, rec.State, verdict.RiskLevel, verdict.FailureProbability)
	if err := a.reporter.Send(r.Context(), req.Phone, report); err != nil {
		http.Error(w, "failed to send report", http.StatusBadGateway)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}
