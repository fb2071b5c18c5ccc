package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"productivity-agent/internal/version"
	"productivity-agent/pkg/logger"
	"productivity-agent/pkg/taskstore"
	"productivity-agent/pkg/tools"
)

// ServerCmd represents the server command
var ServerCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server that exposes the productivity tools as REST
endpoints plus a raw tool-call endpoint for agent frontends.

The server provides:
- REST API endpoints for tasks, completion logging, insights and prioritization
- A raw /api/tools/{name} endpoint speaking the JSON tool-call protocol
- Prometheus metrics on /metrics
- Graceful shutdown on SIGINT/SIGTERM

Examples:
  productivity-agent serve                       # Start with default settings
  productivity-agent serve --port 8000           # Start on custom port
  productivity-agent serve --storage sqlite      # SQLite-backed storage
  productivity-agent serve --cors-origins "*"    # Enable CORS for all origins`,
	Run: runServer,
}

// ServerConfig holds the HTTP-facing configuration.
type ServerConfig struct {
	Port        int      `json:"port"`
	Host        string   `json:"host"`
	CORSOrigins []string `json:"cors_origins"`
}

// APIServer wires the tool set behind the HTTP routes.
type APIServer struct {
	config  ServerConfig
	toolset *tools.Toolset
	logger  logger.Logger
}

func init() {
	ServerCmd.Flags().Int("port", 8000, "Server port")
	ServerCmd.Flags().String("host", "0.0.0.0", "Server host")
	ServerCmd.Flags().StringSlice("cors-origins", []string{"http://localhost:3000"}, "Allowed CORS origins")

	viper.BindPFlag("port", ServerCmd.Flags().Lookup("port"))
	viper.BindPFlag("host", ServerCmd.Flags().Lookup("host"))
	viper.BindPFlag("cors-origins", ServerCmd.Flags().Lookup("cors-origins"))
}

func runServer(cmd *cobra.Command, args []string) {
	config := ServerConfig{
		Port:        viper.GetInt("port"),
		Host:        viper.GetString("host"),
		CORSOrigins: viper.GetStringSlice("cors-origins"),
	}

	log, err := logger.New(viper.GetString("log-file"), viper.GetString("log-level"),
		viper.GetString("log-format"), true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	toolset, closer, err := tools.Build(tools.Config{
		Backend:           viper.GetString("storage"),
		DataDir:           viper.GetString("data-dir"),
		TasksFile:         viper.GetString("tasks-file"),
		HistoryFile:       viper.GetString("history-file"),
		MinHistoryEntries: viper.GetInt("min-history-entries"),
	})
	if err != nil {
		log.Fatalf("Failed to build tool set: %v", err)
	}
	defer closer()

	api := &APIServer{
		config:  config,
		toolset: toolset,
		logger:  log,
	}

	router := api.setupRoutes()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 30,
		IdleTimeout:  time.Second * 120,
		Handler:      router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	log.Infof("Server started on %s:%d (%s %s)", config.Host, config.Port, version.Name, version.Version)
	log.Infof("API endpoint: http://%s:%d/api/tools/{name}", config.Host, config.Port)

	// Wait for interrupt signal to gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server shutdown complete")
}

// setupRoutes wires the middleware stack and every API route.
func (api *APIServer) setupRoutes() *mux.Router {
	router := mux.NewRouter()

	router.Use(api.corsMiddleware)
	router.Use(api.requestIDMiddleware)
	router.Use(metricsMiddleware)

	router.Handle("/metrics", metricsHandler()).Methods("GET")

	// API routes
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/health", api.handleHealth).Methods("GET")

	// Task routes (from task_routes.go)
	apiRouter.HandleFunc("/tasks", api.handleCreateTask).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/tasks", api.handleListTasks).Methods("GET")
	apiRouter.HandleFunc("/tasks/report", api.handleTaskReport).Methods("GET")
	apiRouter.HandleFunc("/tasks/export", api.handleTaskExport).Methods("GET")
	apiRouter.HandleFunc("/tasks/{id}", api.handleUpdateTask).Methods("PUT", "OPTIONS")
	apiRouter.HandleFunc("/tasks/{id}", api.handleDeleteTask).Methods("DELETE")

	// Insight routes (from insight_routes.go)
	apiRouter.HandleFunc("/completions", api.handleLogCompletion).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/insights/{user_id}", api.handleInsights).Methods("GET")
	apiRouter.HandleFunc("/recommendations/{user_id}", api.handleRecommendations).Methods("GET")
	apiRouter.HandleFunc("/prioritize", api.handlePrioritize).Methods("POST", "OPTIONS")

	// Date routes (from insight_routes.go)
	apiRouter.HandleFunc("/dates/days-until", api.handleDaysUntil).Methods("GET")
	apiRouter.HandleFunc("/dates/add-days", api.handleAddDays).Methods("GET")
	apiRouter.HandleFunc("/dates/check-conflict", api.handleCheckConflict).Methods("GET")
	apiRouter.HandleFunc("/dates/working-days", api.handleWorkingDays).Methods("GET")

	// Raw tool-call protocol
	apiRouter.HandleFunc("/tools", api.handleListTools).Methods("GET")
	apiRouter.HandleFunc("/tools/{name}", api.handleToolCall).Methods("POST", "OPTIONS")

	return router
}

// CORS middleware
func (api *APIServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		for _, allowed := range api.config.CORSOrigins {
			if allowed == "*" || allowed == origin {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware tags every request with an ID for log correlation.
func (api *APIServer) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		api.logger.WithFields(map[string]interface{}{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
		}).Debug("request")

		next.ServeHTTP(w, r)
	})
}

// Health check endpoint
func (api *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   version.Name,
		"version":   version.Version,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (api *APIServer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.logger.Errorf("Failed to encode response: %v", err)
	}
}

// writeError maps store errors to HTTP statuses and renders the same
// {"error": ...} shape the tool protocol uses.
func (api *APIServer) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, taskstore.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, taskstore.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	api.writeJSON(w, status, tools.ErrorResponse{Error: err.Error()})
}

func (api *APIServer) writeBadRequest(w http.ResponseWriter, msg string) {
	api.writeJSON(w, http.StatusBadRequest, tools.ErrorResponse{Error: msg})
}
