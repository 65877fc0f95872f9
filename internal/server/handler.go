package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	log "github.com/sirupsen/logrus"

	"StockSentinel/internal/backtest"
	"StockSentinel/internal/config"
	"StockSentinel/internal/model"
	"StockSentinel/internal/watchlist"
)

var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

// BacktestRunner is the slice of the backtest runner the handlers need.
type BacktestRunner interface {
	Run(ctx context.Context, params backtest.Params) *model.BacktestResult
}

// Handler serves the HTTP surface.
type Handler struct {
	Runner    BacktestRunner
	Watchlist *watchlist.Manager
}

// NewRouter builds the service router.
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(recoverMiddleware)
	router.HandleFunc("/backtest/portfolio", h.handlePortfolioBacktest).Methods(http.MethodGet)
	router.HandleFunc("/watchlist", h.handleWatchlist).Methods(http.MethodGet)
	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	return router
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func setResponse(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("encode response: %v", err)
	}
}

type portfolioBacktestRequest struct {
	InitialSymbol string `schema:"initialSymbol"`
	NumMonths     *int   `schema:"numMonths"`
	EndMonth      string `schema:"endMonthYYYYMM"`
	StockUniverse string `schema:"stockUniverse"`
	Interval      string `schema:"interval"`
}

// toParams validates the request and converts it to run parameters.
// Optional fields fall back to their configured defaults; present-but-invalid
// values are a 400.
func (req *portfolioBacktestRequest) toParams() (backtest.Params, error) {
	params := backtest.Params{}

	if req.InitialSymbol == "" {
		return params, fmt.Errorf("initialSymbol is required")
	}
	params.InitialSymbol = strings.ToUpper(req.InitialSymbol)

	if req.NumMonths != nil {
		if *req.NumMonths < 1 {
			return params, fmt.Errorf("numMonths must be a positive integer")
		}
		params.NumMonths = *req.NumMonths
	}

	if req.EndMonth != "" {
		if _, err := time.Parse("2006-01", req.EndMonth); err != nil {
			return params, fmt.Errorf("endMonthYYYYMM must be in YYYY-MM format")
		}
		params.EndMonth = req.EndMonth
	}

	if req.StockUniverse != "" {
		for _, part := range strings.Split(req.StockUniverse, ",") {
			sym := strings.ToUpper(strings.TrimSpace(part))
			if sym == "" {
				return params, fmt.Errorf("stockUniverse contains an empty symbol")
			}
			params.Universe = append(params.Universe, sym)
		}
	}

	if req.Interval != "" {
		if !config.ValidIntervals[req.Interval] {
			return params, fmt.Errorf("interval must be one of 1min, 5min, 15min, 30min, 60min")
		}
		params.Interval = req.Interval
	}

	return params, nil
}

func (h *Handler) handlePortfolioBacktest(w http.ResponseWriter, r *http.Request) {
	var req portfolioBacktestRequest
	if err := queryDecoder.Decode(&req, r.URL.Query()); err != nil {
		setResponse(w, http.StatusBadRequest, errorResponse{Error: "invalid query parameters", Details: err.Error()})
		return
	}

	params, err := req.toParams()
	if err != nil {
		setResponse(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result := h.Runner.Run(r.Context(), params)

	// Expected "no data" / "no candidate" conditions ride inside a 200; only
	// a missing API key maps to a dedicated status.
	status := http.StatusOK
	if strings.Contains(strings.ToLower(result.Summary.Error), "api key") {
		status = http.StatusUnauthorized
	}
	setResponse(w, status, result)
}

func (h *Handler) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	state := h.Watchlist.GetState()
	setResponse(w, http.StatusOK, state)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	setResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recoverMiddleware converts panics into a 500 with the message echoed in
// details, keeping 500 reserved for truly unexpected failures.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Errorf("panic serving %s: %v", r.URL.Path, rec)
				setResponse(w, http.StatusInternalServerError, errorResponse{
					Error:   "internal server error",
					Details: fmt.Sprint(rec),
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
