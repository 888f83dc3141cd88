package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"watersower/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// handleLogin runs the password path and returns a bearer token.
func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	// Login needs no server-side flow state; a throwaway machine runs the
	// same checker as registration flows.
	flow := a.newLoginFlow()
	session, err := flow.Login(req.Identifier, req.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	a.issueSession(w, session)
}

// handleOTPRequest starts a registration flow: validates the phone number and
// asks the provider for a challenge.
func (a *App) handleOTPRequest(w http.ResponseWriter, r *http.Request) {
	var req otpRequestReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	flowID := uuid.NewString()
	flow := a.newFlow(flowID)
	if err := flow.RequestChallenge(r.Context(), req.Phone); err != nil {
		a.dropFlow(flowID)
		var cerr *models.ChallengeError
		if errors.As(err, &cerr) && cerr.Reason == "failed to send code" {
			http.Error(w, "failed to send code, try again", http.StatusBadGateway)
			return
		}
		http.Error(w, "enter a valid mobile number", http.StatusBadRequest)
		return
	}
	_ = json.NewEncoder(w).Encode(otpRequestResp{FlowID: flowID})
}

// handleOTPVerify checks the entered code and returns the generated farmer id.
func (a *App) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	flow, ok := a.flow(req.FlowID)
	if !ok {
		http.Error(w, "no pending verification", http.StatusUnauthorized)
		return
	}
	farmerID, err := flow.VerifyChallenge(r.Context(), req.Code)
	if err != nil {
		http.Error(w, "invalid code", http.StatusUnauthorized)
		return
	}
	_ = json.NewEncoder(w).Encode(otpVerifyResp{FarmerID: farmerID})
}

// handleRegister completes registration: password + confirmation, then a
// logged-in session for the generated farmer id.
func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	flow, ok := a.flow(req.FlowID)
	if !ok {
		http.Error(w, "no registration in progress", http.StatusBadRequest)
		return
	}
	session, err := flow.CompleteRegistration(req.Password, req.ConfirmPassword)
	if err != nil {
		var cerr *models.ChallengeError
		if errors.As(err, &cerr) {
			http.Error(w, cerr.Reason, http.StatusBadRequest)
			return
		}
		http.Error(w, "registration failed", http.StatusBadRequest)
		return
	}
	a.dropFlow(req.FlowID)
	a.log.Info("farmer registered", zap.String("subject", session.SubjectID))
	a.issueSession(w, session)
}

// handleMe returns the current session.
func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	us, ok := a.session(mustSubject(r))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(us.session)
}

// handleLogout drops the session and everything owned by it.
func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.closeSession(mustSubject(r))
	w.WriteHeader(http.StatusNoContent)
}

// issueSession opens the server-side session state and writes the token
// response.
func (a *App) issueSession(w http.ResponseWriter, session models.IdentitySession) {
	tok, err := signJWT(a.cfg.JWTSecret, session.SubjectID)
	if err != nil {
		http.Error(w, "jwt error", http.StatusInternalServerError)
		return
	}
	a.openSession(session)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(tokenResp{Token: tok, Session: session})
}
