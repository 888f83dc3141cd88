package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"watersower/farm"
	"watersower/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, predictorURL string) *httptest.Server {
	t.Helper()
	cfg := Config{
		Port:          "0",
		PredictorURI:  predictorURL,
		JWTSecret:     "test-secret",
		OTPAcceptCode: "1234",
		CORSOrigins:   []string{"*"},
	}
	app, err := newApp(cfg, zap.NewNop())
	require.NoError(t, err)
	ts := httptest.NewServer(app.routes())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func loginAs(t *testing.T, ts *httptest.Server, identifier string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", loginReq{
		Identifier: identifier, Password: "password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[tokenResp](t, resp).Token
}

func TestLoginEndpoint(t *testing.T) {
	ts := newTestServer(t, "http://127.0.0.1:1")

	t.Run("sentinel password succeeds", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", loginReq{
			Identifier: "anything", Password: "password",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		tr := decode[tokenResp](t, resp)
		assert.NotEmpty(t, tr.Token)
		assert.Equal(t, "anything", tr.Session.SubjectID)
		assert.Equal(t, models.RoleFarmer, tr.Session.Role)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", loginReq{
			Identifier: "x", Password: "wrong",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token admits the bearer to /me", func(t *testing.T) {
		token := loginAs(t, ts, "farmer7")
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/me", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		s := decode[models.IdentitySession](t, resp)
		assert.Equal(t, "farmer7", s.SubjectID)
	})

	t.Run("no token rejected", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/me", "", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRegistrationEndpoints(t *testing.T) {
	ts := newTestServer(t, "http://127.0.0.1:1")

	t.Run("full registration then login with new credential", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/otp/request", "", otpRequestReq{Phone: "9876543210"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		flowID := decode[otpRequestResp](t, resp).FlowID
		require.NotEmpty(t, flowID)

		resp = doJSON(t, http.MethodPost, ts.URL+"/api/auth/otp/verify", "", otpVerifyReq{FlowID: flowID, Code: "1234"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		farmerID := decode[otpVerifyResp](t, resp).FarmerID
		assert.Regexp(t, `^FID-\d{5}$`, farmerID)

		resp = doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "", registerReq{
			FlowID: flowID, Password: "greenfields", ConfirmPassword: "greenfields",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		tr := decode[tokenResp](t, resp)
		assert.Equal(t, farmerID, tr.Session.SubjectID)
		assert.True(t, tr.Session.IsNewRegistration)

		// Completed flow is discarded.
		resp = doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "", registerReq{
			FlowID: flowID, Password: "greenfields", ConfirmPassword: "greenfields",
		})
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		// The chosen password now works through the login path.
		resp = doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", loginReq{
			Identifier: farmerID, Password: "greenfields",
		})
		resp.Body.Close()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("short phone rejected", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/otp/request", "", otpRequestReq{Phone: "123"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("wrong code rejected", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/otp/request", "", otpRequestReq{Phone: "9876543210"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		flowID := decode[otpRequestResp](t, resp).FlowID

		resp = doJSON(t, http.MethodPost, ts.URL+"/api/auth/otp/verify", "", otpVerifyReq{FlowID: flowID, Code: "0000"})
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("password mismatch rejected", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/otp/request", "", otpRequestReq{Phone: "9876500001"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		flowID := decode[otpRequestResp](t, resp).FlowID

		resp = doJSON(t, http.MethodPost, ts.URL+"/api/auth/otp/verify", "", otpVerifyReq{FlowID: flowID, Code: "1234"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "", registerReq{
			FlowID: flowID, Password: "one", ConfirmPassword: "two",
		})
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLogoutRevokesSession(t *testing.T) {
	ts := newTestServer(t, "http://127.0.0.1:1")
	token := loginAs(t, ts, "farmer-logout")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/logout", token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// The token is still signed correctly but the session is gone.
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/me", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFarmEndpoints(t *testing.T) {
	ts := newTestServer(t, "http://127.0.0.1:1")
	token := loginAs(t, ts, "farmer-form")

	put := func(t *testing.T, path, value string) (*http.Response, farm.Snapshot) {
		t.Helper()
		resp := doJSON(t, http.MethodPut, ts.URL+path, token, setValueReq{Value: value})
		if resp.StatusCode != http.StatusOK {
			return resp, farm.Snapshot{}
		}
		return resp, decode[farm.Snapshot](t, resp)
	}

	t.Run("state selection populates districts and water data", func(t *testing.T) {
		resp, snap := put(t, "/api/farm/state", "Karnataka")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, snap.Districts, "Bangalore Urban")
		assert.Equal(t, "800", snap.Rainfall)
		assert.Equal(t, "18.04", snap.Groundwater)
		assert.Empty(t, snap.District)
	})

	t.Run("district outside the state is a validation error", func(t *testing.T) {
		resp, _ := put(t, "/api/farm/district", "Pune")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("season change resets crop", func(t *testing.T) {
		resp, snap := put(t, "/api/farm/season", "winter")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Wheat", snap.Crop)
		require.NotEmpty(t, snap.CropOptions)
		assert.Equal(t, "Wheat", snap.CropOptions[0].Value)
	})

	t.Run("free-text field edit survives snapshot", func(t *testing.T) {
		resp := doJSON(t, http.MethodPut, ts.URL+"/api/farm/field", token, setFieldReq{Name: "rainfall", Value: "512.5"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		snap := decode[farm.Snapshot](t, resp)
		assert.Equal(t, "512.5", snap.Rainfall)
	})

	t.Run("reset clears the record", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/farm/reset", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		snap := decode[farm.Snapshot](t, resp)
		assert.Empty(t, snap.State)
		assert.Equal(t, models.SeasonMonsoon, snap.Season)
	})

	t.Run("demo scenario loads a complete record", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/demo/risk", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		snap := decode[farm.Snapshot](t, resp)
		assert.Equal(t, "Maharashtra", snap.State)
		assert.Equal(t, "Pune", snap.District)
		assert.Equal(t, "400", snap.Rainfall)
		assert.Equal(t, "Rice", snap.Crop)

		resp = doJSON(t, http.MethodGet, ts.URL+"/api/demo/unknown", token, nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestPredictEndpoint(t *testing.T) {
	predictor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req predictorReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Maharashtra", req.State)
		assert.Equal(t, "Pune", req.District)
		assert.Equal(t, 400.0, req.Rainfall)
		assert.Equal(t, 2.0, req.Groundwater)
		assert.Equal(t, "Rice", req.CropHistory)
		_ = json.NewEncoder(w).Encode(models.PredictionVerdict{
			RiskLevel:          models.RiskHigh,
			FailureProbability: 90,
			Suggestions:        []string{"Switch to Millets", "Install Drip Irrigation", "Apply for Crop Insurance"},
			Schemes: []models.Scheme{
				{Name: "PMFBY", Tags: []string{"Insurance"}, Link: "https://pmfby.gov.in/"},
			},
		})
	}))
	defer predictor.Close()

	ts := newTestServer(t, predictor.URL)
	token := loginAs(t, ts, "farmer-predict")

	t.Run("incomplete record fails validation before any call", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/predict", token, nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("demo record predicts and correlates", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/demo/risk", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = doJSON(t, http.MethodPost, ts.URL+"/api/predict", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		pr := decode[predictResp](t, resp)
		assert.Equal(t, models.RiskHigh, pr.Verdict.RiskLevel)
		assert.Equal(t, 90.0, pr.Verdict.FailureProbability)

		require.Len(t, pr.Insights, 2)
		assert.Equal(t, "Rice", pr.Insights[0].Crop)
		assert.True(t, pr.Insights[0].IsCurrent)
		assert.Equal(t, "Millets", pr.Insights[1].Crop)
	})

	t.Run("report of the last verdict can be sent", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/report/send", token, sendReportReq{Phone: "9876543210"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestPredictServiceFailure(t *testing.T) {
	predictor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model down", http.StatusInternalServerError)
	}))
	defer predictor.Close()

	ts := newTestServer(t, predictor.URL)
	token := loginAs(t, ts, "farmer-fail")

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/demo/water", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/predict", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	// The record is preserved for resubmission.
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/farm", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decode[farm.Snapshot](t, resp)
	assert.Equal(t, "Karnataka", snap.State)
	assert.Equal(t, "Bangalore Urban", snap.District)
}

func TestPredictSingleFlight(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	predictor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-release
		_ = json.NewEncoder(w).Encode(models.PredictionVerdict{
			RiskLevel:          models.RiskLow,
			FailureProbability: 5,
			Suggestions:        []string{"Conditions Favorable"},
		})
	}))
	defer predictor.Close()

	ts := newTestServer(t, predictor.URL)
	token := loginAs(t, ts, "farmer-flight")

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/demo/crop", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	first := make(chan int)
	go func() {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/predict", token, nil)
		resp.Body.Close()
		first <- resp.StatusCode
	}()

	<-arrived // predictor is holding the first request

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/predict", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	close(release)
	assert.Equal(t, http.StatusOK, <-first)
}
