package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lotledger/lotledger/internal/domain"
	"github.com/lotledger/lotledger/internal/service"
)

// LedgerHandler handles HTTP requests for ledger read endpoints.
type LedgerHandler struct {
	ledgerSvc *service.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerSvc *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// tripResponse is a single matched round trip in API responses. Monetary
// amounts are decimal strings; date and time parts are null when unknown.
type tripResponse struct {
	Instrument      string  `json:"instrument"`
	Quantity        int64   `json:"quantity"`
	BuyPrice        string  `json:"buy_price"`
	SellPrice       string  `json:"sell_price"`
	OpenedDate      *string `json:"opened_date"`
	OpenedTime      *string `json:"opened_time"`
	ClosedDate      *string `json:"closed_date"`
	ClosedTime      *string `json:"closed_time"`
	Commission      string  `json:"commission"`
	Profit          string  `json:"profit"`
	HoldMinutes     *int64  `json:"hold_minutes"`
	BuyExecutionID  string  `json:"buy_execution_id"`
	SellExecutionID string  `json:"sell_execution_id"`
}

// openLotResponse is a single open lot in API responses.
type openLotResponse struct {
	Instrument  string  `json:"instrument"`
	Side        string  `json:"side"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Price       string  `json:"price"`
	Remaining   int64   `json:"remaining"`
	Commission  string  `json:"commission"`
	ExecutionID string  `json:"execution_id"`
}

// matchingResultResponse is the JSON response for POST /imports.
type matchingResultResponse struct {
	RoundTrips     []tripResponse    `json:"round_trips"`
	OpenLots       []openLotResponse `json:"open_lots"`
	TotalMatched   int               `json:"total_matched"`
	TotalUnmatched int               `json:"total_unmatched"`
	NetProfit      string            `json:"net_profit"`
}

// tripListResponse is the JSON response for GET /users/{user_id}/round-trips.
type tripListResponse struct {
	RoundTrips []tripResponse `json:"round_trips"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
}

// openLotListResponse is the JSON response for GET /users/{user_id}/open-lots.
type openLotListResponse struct {
	OpenLots []openLotResponse `json:"open_lots"`
}

// openPositionResponse is one aggregated position in the summary.
type openPositionResponse struct {
	Instrument string `json:"instrument"`
	Side       string `json:"side"`
	Quantity   int64  `json:"quantity"`
}

// summaryResponse is the JSON response for GET /users/{user_id}/summary.
type summaryResponse struct {
	UserID        string                 `json:"user_id"`
	TotalTrips    int                    `json:"total_trips"`
	NetProfit     string                 `json:"net_profit"`
	OpenPositions []openPositionResponse `json:"open_positions"`
}

// RoundTrips handles GET /users/{user_id}/round-trips.
func (h *LedgerHandler) RoundTrips(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	instrument := r.URL.Query().Get("instrument")
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 50)

	trips, total, err := h.ledgerSvc.RoundTrips(r.Context(), userID, instrument, page, limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	WriteJSON(w, http.StatusOK, tripListResponse{
		RoundTrips: buildTripResponses(trips),
		Total:      total,
		Page:       page,
		Limit:      limit,
	})
}

// OpenLots handles GET /users/{user_id}/open-lots.
func (h *LedgerHandler) OpenLots(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	lots, err := h.ledgerSvc.OpenLots(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	WriteJSON(w, http.StatusOK, openLotListResponse{
		OpenLots: buildOpenLotResponses(lots),
	})
}

// Summary handles GET /users/{user_id}/summary.
func (h *LedgerHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	summary, err := h.ledgerSvc.Summarize(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	positions := make([]openPositionResponse, len(summary.OpenPositions))
	for i, p := range summary.OpenPositions {
		positions[i] = openPositionResponse{
			Instrument: p.Instrument,
			Side:       string(p.Side),
			Quantity:   p.Quantity,
		}
	}

	WriteJSON(w, http.StatusOK, summaryResponse{
		UserID:        summary.UserID,
		TotalTrips:    summary.TotalTrips,
		NetProfit:     summary.NetProfit.StringFixed(2),
		OpenPositions: positions,
	})
}

// queryInt reads an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// buildMatchingResultResponse converts an engine result to the import response.
func buildMatchingResultResponse(result *domain.MatchingResult) matchingResultResponse {
	return matchingResultResponse{
		RoundTrips:     buildTripResponses(result.Trips),
		OpenLots:       buildOpenLotResponses(result.OpenLots),
		TotalMatched:   result.TotalMatched,
		TotalUnmatched: result.TotalUnmatched,
		NetProfit:      result.NetProfit.StringFixed(2),
	}
}

// buildTripResponses converts domain round trips to response trips.
func buildTripResponses(trips []*domain.MatchedRoundTrip) []tripResponse {
	result := make([]tripResponse, len(trips))
	for i, t := range trips {
		result[i] = tripResponse{
			Instrument:      t.Instrument,
			Quantity:        t.Quantity,
			BuyPrice:        t.BuyPrice.String(),
			SellPrice:       t.SellPrice.String(),
			OpenedDate:      dayPtr(t.OpenedAt),
			OpenedTime:      clockPtr(t.OpenedAt),
			ClosedDate:      dayPtr(t.ClosedAt),
			ClosedTime:      clockPtr(t.ClosedAt),
			Commission:      t.Commission.String(),
			Profit:          t.Profit.StringFixed(2),
			HoldMinutes:     t.HoldMinutes,
			BuyExecutionID:  t.BuyExecutionID,
			SellExecutionID: t.SellExecutionID,
		}
	}
	return result
}

// buildOpenLotResponses converts domain open lots to response lots.
func buildOpenLotResponses(lots []*domain.OpenLot) []openLotResponse {
	result := make([]openLotResponse, len(lots))
	for i, lot := range lots {
		result[i] = openLotResponse{
			Instrument:  lot.Instrument,
			Side:        string(lot.Side),
			Date:        dayPtr(lot.Time),
			Time:        clockPtr(lot.Time),
			Price:       lot.Price.String(),
			Remaining:   lot.Remaining,
			Commission:  lot.Commission.String(),
			ExecutionID: lot.ExecutionID,
		}
	}
	return result
}

func dayPtr(t domain.TradeTime) *string {
	if !t.HasDay() {
		return nil
	}
	s := t.DayString()
	return &s
}

func clockPtr(t domain.TradeTime) *string {
	if !t.HasClock {
		return nil
	}
	s := t.ClockString()
	return &s
}
