package main

import (
	"os"
	"strings"
)

type Config struct {
	Port          string
	PredictorURI  string
	JWTSecret     string
	OTPAcceptCode string
	CORSOrigins   []string
}

func mustConfig() Config {
	cfg := Config{
		Port:          getenv("PORT", "8080"),
		PredictorURI:  getenv("PREDICTOR_URL", "http://127.0.0.1:8001"),
		JWTSecret:     getenv("JWT_SECRET", "change_me"),
		OTPAcceptCode: getenv("OTP_ACCEPT_CODE", "1234"),
		CORSOrigins: splitList(getenv("CORS_ORIGINS",
			"http://localhost:5173,http://127.0.0.1:5173,http://localhost:3000")),
	}

	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
