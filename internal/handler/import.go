package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/lotledger/lotledger/internal/domain"
	"github.com/lotledger/lotledger/internal/parser"
	"github.com/lotledger/lotledger/internal/service"
)

// ImportHandler handles HTTP requests for import endpoints.
type ImportHandler struct {
	importSvc *service.ImportService
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importSvc *service.ImportService) *ImportHandler {
	return &ImportHandler{importSvc: importSvc}
}

// executionRequest is one raw execution in the import request body.
type executionRequest struct {
	Instrument  string      `json:"instrument"`
	Side        string      `json:"side"`
	Quantity    int64       `json:"quantity"`
	Price       json.Number `json:"price"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
	Commission  json.Number `json:"commission"`
	ExecutionID string      `json:"execution_id"`
}

// importRequest is the JSON request body for POST /imports.
type importRequest struct {
	UserID     string             `json:"user_id"`
	Executions []executionRequest `json:"executions"`
}

// Import handles POST /imports.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	executions := make([]domain.RawExecution, len(req.Executions))
	for i, e := range req.Executions {
		price, err := parseAmount(e.Price, decimal.Zero)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "price must be a decimal number")
			return
		}
		commission, err := parseAmount(e.Commission, decimal.Zero)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "commission must be a decimal number")
			return
		}
		executions[i] = domain.RawExecution{
			Instrument:  e.Instrument,
			Side:        domain.Side(e.Side),
			Quantity:    e.Quantity,
			Price:       price,
			Time:        domain.ParseTradeTime(e.Date, e.Time),
			Commission:  commission,
			ExecutionID: e.ExecutionID,
		}
	}

	h.runImport(w, r, req.UserID, executions)
}

// ImportCSV handles POST /imports/csv. The user is identified by the
// user_id query parameter and the body is a CSV document.
func (h *ImportHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "user_id query parameter is required")
		return
	}

	executions, err := parser.ReadCSV(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_csv", err.Error())
		return
	}

	h.runImport(w, r, userID, executions)
}

func (h *ImportHandler) runImport(w http.ResponseWriter, r *http.Request, userID string, executions []domain.RawExecution) {
	result, err := h.importSvc.Import(r.Context(), service.ImportRequest{
		UserID:     userID,
		Executions: executions,
	})
	if err != nil {
		mapImportError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildMatchingResultResponse(result))
}

// parseAmount converts an optional JSON number to a decimal, falling back
// to def when the field was absent.
func parseAmount(n json.Number, def decimal.Decimal) (decimal.Decimal, error) {
	if n == "" {
		return def, nil
	}
	return decimal.NewFromString(n.String())
}

// mapImportError maps domain errors to HTTP responses for import endpoints.
func mapImportError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Error())
		return
	}
	WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
}
