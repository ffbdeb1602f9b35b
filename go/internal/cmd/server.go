package main

import (
	"fmt"
	"net/http"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(services *Services, config *Config) *http.Server {
	return &http.Server{
		Addr:    fmt.Sprintf(":%s", getEnv("PORT", "8080")),
		Handler: newHandler(services, config),
	}
}

func newHandler(services *Services, config *Config) http.Handler {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: config.allowedOrigins(),
		AllowedHeaders: []string{"*"},
	})

	// Register services
	services.Movies.RegisterRoutes(mux)
	services.Rooms.RegisterRoutes(mux)
	services.Hub.RegisterRoutes(mux)

	mux.Handle("GET /health", services.Health)

	return h2c.NewHandler(c.Handler(mux), &http2.Server{})
}
