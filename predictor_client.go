package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"watersower/models"
)

// predictorClient talks to the external prediction service. One instance per
// app; callers enforce the one-in-flight-per-session rule.
type predictorClient struct {
	base   string
	client *http.Client
}

func newPredictorClient(base string) *predictorClient {
	if base == "" || base == "local" {
		base = "http://127.0.0.1:8001"
	}
	return &predictorClient{
		base:   base,
		client: &http.Client{Timeout: 25 * time.Second},
	}
}

// Predict calls POST {base}/predict with the record's wire payload. Any
// transport failure, non-2xx status or partial/malformed body yields a
// *models.PredictionRequestError; a half-populated verdict is never returned.
func (p *predictorClient) Predict(ctx context.Context, rec models.FarmRecord) (*models.PredictionVerdict, error) {
	body, err := json.Marshal(predictorReq{
		State:       rec.State,
		District:    rec.District,
		Rainfall:    rec.RainfallMm,
		Groundwater: rec.GroundwaterBcm,
		CropHistory: rec.CropHistory,
	})
	if err != nil {
		return nil, &models.PredictionRequestError{Err: fmt.Errorf("marshal predict req: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, &models.PredictionRequestError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &models.PredictionRequestError{Err: fmt.Errorf("predictor call failed: %w", err)}
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &models.PredictionRequestError{Err: fmt.Errorf("predictor non-2xx: %s", resp.Status)}
	}

	var out models.PredictionVerdict
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &models.PredictionRequestError{Err: fmt.Errorf("decode predictor resp: %w", err)}
	}
	// Fail closed on partial responses.
	if !out.RiskLevel.IsValid() {
		return nil, &models.PredictionRequestError{Err: fmt.Errorf("predictor resp: missing or unknown risk_level")}
	}
	if out.FailureProbability < 0 || out.FailureProbability > 100 {
		return nil, &models.PredictionRequestError{Err: fmt.Errorf("predictor resp: probability out of range: %v", out.FailureProbability)}
	}
	return &out, nil
}
