package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/devashishj/folio/internal/aggregator"
	"github.com/devashishj/folio/internal/portfolio"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	agg   *aggregator.Service
	group singleflight.Group
	log   zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(agg *aggregator.Service, log zerolog.Logger) *Handler {
	return &Handler{
		agg: agg,
		log: log.With().Str("handler", "portfolio").Logger(),
	}
}

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/", h.HandleGetPortfolio)       // Enriched holdings
		r.Get("/summary", h.HandleGetSummary)  // Sector summary
		r.Get("/{symbol}", h.HandleGetHolding) // Single holding
	})
}

// aggregateAll runs the full aggregation, deduplicated so overlapping UI
// polls share one vendor round trip instead of racing the cache files.
func (h *Handler) aggregateAll(r *http.Request) []portfolio.EnrichedHolding {
	result, _, _ := h.group.Do("aggregate-all", func() (interface{}, error) {
		return h.agg.AggregateAll(r.Context()), nil
	})
	return result.([]portfolio.EnrichedHolding)
}

// HandleGetPortfolio returns all enriched holdings in configuration order.
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	holdings := h.aggregateAll(r)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"holdings": holdings,
		"count":    len(holdings),
	})
}

// HandleGetHolding returns one enriched holding by symbol.
func (h *Handler) HandleGetHolding(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	enriched, ok := h.agg.AggregateOne(r.Context(), symbol)
	if !ok {
		h.writeError(w, http.StatusNotFound, "symbol not in portfolio: "+symbol)
		return
	}

	h.writeJSON(w, http.StatusOK, enriched)
}

// SectorSummary aggregates enriched holdings per sector.
type SectorSummary struct {
	Sector       string  `json:"sector"`
	Holdings     int     `json:"holdings"`
	Investment   float64 `json:"investment"`
	PresentValue float64 `json:"presentValue"`
	GainLoss     float64 `json:"gainLoss"`
}

// HandleGetSummary returns per-sector totals plus portfolio-wide totals.
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	holdings := h.aggregateAll(r)

	bySector := make(map[string]*SectorSummary)
	var order []string
	var totalInvestment, totalPresentValue float64

	for _, e := range holdings {
		sector := e.Sector
		if sector == "" {
			sector = "Unclassified"
		}
		summary, ok := bySector[sector]
		if !ok {
			summary = &SectorSummary{Sector: sector}
			bySector[sector] = summary
			order = append(order, sector)
		}
		summary.Holdings++
		summary.Investment += e.Investment
		summary.PresentValue += e.Realtime.PresentValue
		summary.GainLoss += e.Realtime.GainLoss

		totalInvestment += e.Investment
		totalPresentValue += e.Realtime.PresentValue
	}

	sectors := make([]SectorSummary, 0, len(order))
	for _, sector := range order {
		sectors = append(sectors, *bySector[sector])
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"sectors":           sectors,
		"totalInvestment":   totalInvestment,
		"totalPresentValue": totalPresentValue,
		"totalGainLoss":     totalPresentValue - totalInvestment,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
