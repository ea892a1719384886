package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/google/uuid"

	"github.com/lotledger/lotledger/internal/domain"
	"github.com/lotledger/lotledger/internal/engine"
	"github.com/lotledger/lotledger/internal/store"
)

var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ImportRequest is one user's batch of raw executions to reduce.
type ImportRequest struct {
	UserID     string
	Executions []domain.RawExecution
}

// ImportService runs one matching pass per import: it loads the user's
// carried-over inventory, hands the batch to the engine, persists the
// result, and notifies subscribers.
type ImportService struct {
	engine     *engine.Engine
	ledger     *store.LedgerStore
	webhookSvc *WebhookService
	logger     *slog.Logger
}

// NewImportService creates an ImportService with the given dependencies.
func NewImportService(
	eng *engine.Engine,
	ledger *store.LedgerStore,
	webhookSvc *WebhookService,
	logger *slog.Logger,
) *ImportService {
	return &ImportService{
		engine:     eng,
		ledger:     ledger,
		webhookSvc: webhookSvc,
		logger:     logger,
	}
}

// Import validates the request, runs the engine, and persists the outcome
// transactionally. Validation is all-or-nothing: a bad execution fails the
// whole batch and nothing is written.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*domain.MatchingResult, error) {
	if !userIDRegex.MatchString(req.UserID) {
		return nil, &domain.ValidationError{Message: "user_id must match ^[a-zA-Z0-9_-]{1,64}$"}
	}

	// Executions without a broker-assigned id get a synthetic one so the
	// persistence keys are non-empty. Synthetic ids are fresh per import,
	// so only broker ids give cross-import idempotence.
	for i := range req.Executions {
		if req.Executions[i].ExecutionID == "" {
			req.Executions[i].ExecutionID = uuid.New().String()
		}
	}

	carried, err := s.ledger.ListOpenLots(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load carried inventory: %w", err)
	}

	result, err := s.engine.Match(ctx, engine.Batch{
		Executions: req.Executions,
		Carried:    carried,
	})
	if err != nil {
		return nil, err
	}

	if err := s.ledger.SaveImport(ctx, req.UserID, result); err != nil {
		return nil, fmt.Errorf("persist matching result: %w", err)
	}

	s.logger.Info("batch imported",
		slog.String("user_id", req.UserID),
		slog.Int("executions", len(req.Executions)),
		slog.Int("carried", len(carried)),
		slog.Int("matched", result.TotalMatched),
		slog.Int("unmatched", result.TotalUnmatched),
		slog.String("net_profit", result.NetProfit.StringFixed(2)),
	)

	s.webhookSvc.DispatchImportCompleted(req.UserID, result)

	return result, nil
}
