package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ex "ma/data/extensions"
	"ma/service/logger"
	sm "ma/service/models"
)

const (
	DefaultAddr     = ":8080"
	MaxRequestBytes = 1 << 20
)

type SyncResponse struct {
	Symbol        string `json:"symbol"`
	LastRefreshed string `json:"lastRefreshed"`
}

func GetHttpServer(sc *ServiceContext, addr string) *http.Server {
	if addr == "" {
		addr = DefaultAddr
	}

	server := &http.Server{
		Addr:           addr,
		Handler:        NewRouter(sc),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   2 * time.Minute, // fetching from alpha vantage for several symbols is slow
		MaxHeaderBytes: 1 << 20,
	}

	return server
}

func NewRouter(sc *ServiceContext) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}))

	router.Get("/api/ping", ping)
	router.Post("/api/analysis", func(w http.ResponseWriter, r *http.Request) { runAnalysis(w, r, sc) })
	router.Get("/api/analysis/runs/{id}", func(w http.ResponseWriter, r *http.Request) { getAnalysisRun(w, r, sc) })
	router.Post("/api/symbols/{symbol}/sync", func(w http.ResponseWriter, r *http.Request) { syncSymbol(w, r, sc) })
	router.Handle("/metrics", promhttp.Handler())

	return router
}

func ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
}

func runAnalysis(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	var body sm.AnalysisRequestBody
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	req, err := body.ToRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := sc.RunAnalysisForRequest(r.Context(), req)
	if err != nil {
		writeError(w, statusFromError(err), err)
		return
	}

	writeJSON(w, http.StatusOK, sm.GetServiceResponseOk(res))
}

func getAnalysisRun(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	if sc.RunHistory == nil {
		writeError(w, http.StatusNotFound, errors.New("run history is not recorded without a database"))
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid run id %q", chi.URLParam(r, "id")))
		return
	}

	run, err := sc.RunHistory.GetAnalysisRunHistoryById(r.Context(), int32(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("analysis run %d not found", id))
		return
	}

	writeJSON(w, http.StatusOK, sm.GetServiceResponseOk(run))
}

func syncSymbol(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, errors.New("symbol is required"))
		return
	}

	lastRefreshed, err := sc.SyncSymbolTimeSeriesData(r.Context(), symbol)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, sm.GetServiceResponseOk(&SyncResponse{
		Symbol:        symbol,
		LastRefreshed: ex.FmtShort(lastRefreshed),
	}))
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, sm.ErrInvalidRequest):
		return http.StatusBadRequest
	case isInsufficientData(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, sm.GetServiceResponseError(err.Error()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("error encoding response")
	}
}
