// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package web serves the detection pipeline over HTTP: one detect
// endpoint that accepts either an OCR word dump or a file upload, plus
// health, version, and discovery routes.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"redact-scan/internal/ai"
	"redact-scan/internal/config"
	"redact-scan/internal/detector"
	"redact-scan/internal/formatters"
	"redact-scan/internal/observability"
	"redact-scan/internal/suppressions"
	"redact-scan/internal/version"
	"redact-scan/internal/wordsource"

	// Register the output formatters.
	_ "redact-scan/internal/formatters/json"
	_ "redact-scan/internal/formatters/text"
)

// Server hosts the detection API. All requests share one observer, one
// suppression manager, and one AI client; per-request knobs arrive as
// query or form parameters.
type Server struct {
	cfg      *config.Config
	loader   *wordsource.Router
	suppress *suppressions.Manager
	ai       ai.Client
	observer *observability.StandardObserver
	server   *http.Server
	addr     string
}

// NewServer wires a server from the shared components. The AI client and
// suppression manager may be nil; the matching pipeline layers then stay
// off.
func NewServer(cfg *config.Config, manager *suppressions.Manager, aiClient ai.Client, observer *observability.StandardObserver) *Server {
	loader := wordsource.NewRouter()
	loader.SetObserver(observer)

	return &Server{
		cfg:      cfg,
		loader:   loader,
		suppress: manager,
		ai:       aiClient,
		observer: observer,
	}
}

// Handler builds the route tree with CORS applied. Exposed separately so
// tests can drive the API without a listener.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/version", s.handleVersion).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/detect", s.handleDetect).Methods(http.MethodPost)
	api.HandleFunc("/formats", s.handleFormats).Methods(http.MethodGet)
	api.HandleFunc("/types", s.handleTypes).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	return c.Handler(router)
}

// Start listens on the configured host and port and serves until Stop.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.cfg.Web.Host, strconv.Itoa(s.cfg.Web.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("cannot listen on %s: %w\n"+
			"Troubleshooting: check whether another service holds the port, or pass --port", addr, err)
	}
	s.addr = listener.Addr().String()

	s.server = &http.Server{
		Handler: s.Handler(),
		// Detection with the AI layer can run long; writes get the
		// most room.
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Addr returns the bound address once Start has opened the listener.
func (s *Server) Addr() string {
	return s.addr
}

// Stop shuts the server down, letting in-flight requests finish.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	info := version.Full()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "redact-scan-web",
		"version":   info["version"],
		"build_info": map[string]interface{}{
			"version":    info["version"],
			"commit":     info["commit"],
			"build_date": info["buildDate"],
			"go_version": info["goVersion"],
			"platform":   info["platform"],
		},
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, version.Full())
}

func (s *Server) handleFormats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, formatters.GetSupportedFormats())
}

func (s *Server) handleTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, detector.AllTypes())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, detectResponse{Error: message})
}
