package main

import (
	"watersower/models"
)

// Request/response DTOs. Keep them minimal and explicit.

type loginReq struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type tokenResp struct {
	Token   string                 `json:"token"`
	Session models.IdentitySession `json:"session"`
}

type otpRequestReq struct {
	Phone string `json:"phone"`
}

type otpRequestResp struct {
	FlowID string `json:"flowId"`
}

type otpVerifyReq struct {
	FlowID string `json:"flowId"`
	Code   string `json:"code"`
}

type otpVerifyResp struct {
	FarmerID string `json:"farmerId"`
}

type registerReq struct {
	FlowID          string `json:"flowId"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type setValueReq struct {
	Value string `json:"value"`
}

type setFieldReq struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type predictResp struct {
	Verdict  models.PredictionVerdict `json:"verdict"`
	Insights []models.MarketInsight   `json:"insights,omitempty"`
}

type sendReportReq struct {
	Phone string `json:"phone"`
}

// Payload we send to the prediction service's /predict.
type predictorReq struct {
	State       string  `json:"state"`
	District    string  `json:"district"`
	Rainfall    float64 `json:"rainfall"`
	Groundwater float64 `json:"groundwater"`
	CropHistory string  `json:"crop_history"`
}
