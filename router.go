package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	httpSwagger "github.com/swaggo/http-swagger"
)

// routes wires middlewares and endpoints. Adjust CORS for your frontend hosts.
func (a *App) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(a.recoverMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.Write(openapiYAML)
	})

	r.Mount("/swagger", httpSwagger.Handler(
		httpSwagger.URL("/api/openapi.yaml"),
	))

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		api.Post("/auth/login", a.handleLogin)
		api.Post("/auth/otp/request", a.handleOTPRequest)
		api.Post("/auth/otp/verify", a.handleOTPVerify)
		api.Post("/auth/register", a.handleRegister)

		api.Group(func(pr chi.Router) {
			pr.Use(a.authMiddleware)
			pr.Get("/me", a.handleMe)
			pr.Post("/auth/logout", a.handleLogout)

			pr.Route("/farm", func(fr chi.Router) {
				fr.Get("/", a.handleFarmSnapshot)
				fr.Put("/state", a.handleSetState)
				fr.Put("/district", a.handleSetDistrict)
				fr.Put("/year", a.handleSetYear)
				fr.Put("/season", a.handleSetSeason)
				fr.Put("/crop", a.handleSetCrop)
				fr.Put("/field", a.handleSetField)
				fr.Post("/reset", a.handleFarmReset)
			})

			pr.Get("/demo/{scenario}", a.handleDemoScenario)
			pr.Post("/predict", a.handlePredict)
			pr.Post("/report/send", a.handleSendReport)
		})
	})

	return r
}
