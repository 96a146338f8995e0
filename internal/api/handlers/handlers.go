package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/korvarsson/bdget/internal/api/middleware"
	"github.com/korvarsson/bdget/internal/domain"
	"github.com/korvarsson/bdget/internal/importer"
	"github.com/korvarsson/bdget/internal/interpreter"
	"github.com/korvarsson/bdget/internal/projection"
	"github.com/korvarsson/bdget/internal/store"
)

// nowDate is swapped out by tests that need a fixed reference day.
var nowDate = func() civil.Date { return civil.DateOf(time.Now()) }

// refreshProjections recomputes every goal's completion estimate from the
// current ledger. Runs after every mutation; goals are persisted only when an
// estimate actually changed.
func refreshProjections(ctx context.Context, st *store.Store) error {
	goals, err := st.Goals(ctx)
	if err != nil {
		return err
	}
	txs, err := st.Transactions(ctx)
	if err != nil {
		return err
	}

	updated := projection.Refresh(goals, txs, nowDate())
	if projection.Equal(goals, updated) {
		return nil
	}
	return st.SaveGoals(ctx, updated)
}

// ChatHandler handles the free-text command endpoint.
type ChatHandler struct {
	store *store.Store
	in    *interpreter.Interpreter
	log   zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(st *store.Store, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{store: st, in: interpreter.New(), log: log}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		middleware.WriteError(w, http.StatusBadRequest, "message is required")
		return
	}

	ctx := r.Context()

	txs, err := h.store.Transactions(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load transactions")
		return
	}
	currency, err := h.store.Currency(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load currency")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	result := h.in.Interpret(req.Message, interpreter.Context{
		Transactions: txs,
		Currency:     currency,
		Now:          nowDate(),
	})

	mutated := false
	if result.Transaction != nil {
		if err := h.store.UpsertTransaction(ctx, *result.Transaction); err != nil {
			h.log.Error().Err(err).Msg("Failed to save transaction")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to save transaction")
			return
		}
		mutated = true
	}
	if result.Goal != nil {
		if err := h.store.UpsertGoal(ctx, *result.Goal); err != nil {
			h.log.Error().Err(err).Msg("Failed to save goal")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to save goal")
			return
		}
		mutated = true
	}
	if mutated {
		if err := refreshProjections(ctx, h.store); err != nil {
			h.log.Error().Err(err).Msg("Failed to refresh projections")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to refresh projections")
			return
		}
	}

	conv, err := h.store.Conversation(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load conversation")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load conversation")
		return
	}
	conv = interpreter.AppendExchange(conv, req.Message, result.Response)
	if err := h.store.SaveConversation(ctx, conv); err != nil {
		h.log.Error().Err(err).Msg("Failed to save conversation")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save conversation")
		return
	}

	h.log.Info().Str("intent", string(result.Intent)).Msg("Chat command interpreted")

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"intent":   string(result.Intent),
		"response": result.Response,
	})
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	store *store.Store
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(st *store.Store, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: st, log: log}
}

// List handles GET /api/transactions
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	txs, err := h.store.Transactions(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	// Return array directly for frontend compatibility
	if txs == nil {
		txs = []domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, txs)
}

// Create handles POST /api/transactions
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var tx domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if tx.Description == "" || tx.Amount == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "description and a non-zero amount are required")
		return
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Category == "" {
		tx.Category = domain.DefaultCategory
	}
	if !tx.Date.IsValid() {
		tx.Date = nowDate()
	}

	ctx := r.Context()
	if err := h.store.UpsertTransaction(ctx, tx); err != nil {
		h.log.Error().Err(err).Msg("Failed to save transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save transaction")
		return
	}
	if err := refreshProjections(ctx, h.store); err != nil {
		h.log.Error().Err(err).Msg("Failed to refresh projections")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to refresh projections")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// Delete handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	removed, err := h.store.DeleteTransaction(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Str("transaction_id", id).Msg("Failed to delete transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}
	if !removed {
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	if err := refreshProjections(ctx, h.store); err != nil {
		h.log.Error().Err(err).Msg("Failed to refresh projections")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to refresh projections")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GoalsHandler handles goal-related endpoints.
type GoalsHandler struct {
	store *store.Store
	log   zerolog.Logger
}

// NewGoalsHandler creates a new goals handler.
func NewGoalsHandler(st *store.Store, log zerolog.Logger) *GoalsHandler {
	return &GoalsHandler{store: st, log: log}
}

// List handles GET /api/goals
func (h *GoalsHandler) List(w http.ResponseWriter, r *http.Request) {
	goals, err := h.store.Goals(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list goals")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list goals")
		return
	}

	if goals == nil {
		goals = []domain.Goal{}
	}
	middleware.WriteJSON(w, http.StatusOK, goals)
}

// Create handles POST /api/goals
func (h *GoalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var goal domain.Goal
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if goal.Name == "" || goal.TargetAmount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "name and a positive target_amount are required")
		return
	}
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	// Estimates are derived state; a client cannot set one directly.
	goal.EstimatedCompletion = nil

	ctx := r.Context()
	if err := h.store.UpsertGoal(ctx, goal); err != nil {
		h.log.Error().Err(err).Msg("Failed to save goal")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save goal")
		return
	}
	if err := refreshProjections(ctx, h.store); err != nil {
		h.log.Error().Err(err).Msg("Failed to refresh projections")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to refresh projections")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, goal)
}

// Delete handles DELETE /api/goals/{id}
func (h *GoalsHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	removed, err := h.store.DeleteGoal(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Str("goal_id", id).Msg("Failed to delete goal")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete goal")
		return
	}
	if !removed {
		middleware.WriteError(w, http.StatusNotFound, "Goal not found")
		return
	}
	if err := refreshProjections(ctx, h.store); err != nil {
		h.log.Error().Err(err).Msg("Failed to refresh projections")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to refresh projections")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// PredictedIncomeHandler handles expected-income endpoints.
type PredictedIncomeHandler struct {
	store *store.Store
	log   zerolog.Logger
}

// NewPredictedIncomeHandler creates a new predicted-income handler.
func NewPredictedIncomeHandler(st *store.Store, log zerolog.Logger) *PredictedIncomeHandler {
	return &PredictedIncomeHandler{store: st, log: log}
}

// List handles GET /api/predicted-income
func (h *PredictedIncomeHandler) List(w http.ResponseWriter, r *http.Request) {
	incomes, err := h.store.PredictedIncomes(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list predicted incomes")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list predicted incomes")
		return
	}

	if incomes == nil {
		incomes = []domain.PredictedIncome{}
	}
	middleware.WriteJSON(w, http.StatusOK, incomes)
}

// Create handles POST /api/predicted-income
func (h *PredictedIncomeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var income domain.PredictedIncome
	if err := json.NewDecoder(r.Body).Decode(&income); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if income.Source == "" || income.Amount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "source and a positive amount are required")
		return
	}
	if income.ID == "" {
		income.ID = uuid.NewString()
	}

	// Predicted income never feeds the savings rate, so no refresh here.
	if err := h.store.UpsertPredictedIncome(r.Context(), income); err != nil {
		h.log.Error().Err(err).Msg("Failed to save predicted income")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save predicted income")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, income)
}

// Delete handles DELETE /api/predicted-income/{id}
func (h *PredictedIncomeHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	removed, err := h.store.DeletePredictedIncome(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("income_id", id).Msg("Failed to delete predicted income")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete predicted income")
		return
	}
	if !removed {
		middleware.WriteError(w, http.StatusNotFound, "Predicted income not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ImportHandler handles statement import.
type ImportHandler struct {
	store *store.Store
	im    *importer.Importer
	log   zerolog.Logger
}

// NewImportHandler creates a new import handler.
func NewImportHandler(st *store.Store, im *importer.Importer, log zerolog.Logger) *ImportHandler {
	if im == nil {
		im = importer.New(nil)
	}
	return &ImportHandler{store: st, im: im, log: log}
}

// Import handles POST /api/import. The request body is the raw statement
// file; the target currency comes from the query or the stored selection.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := io.ReadAll(r.Body)
	if err != nil || len(raw) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "A statement file body is required")
		return
	}

	currency := r.URL.Query().Get("currency")
	if currency == "" {
		currency, err = h.store.Currency(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to load currency")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to load settings")
			return
		}
	}

	result, err := h.im.Import(raw, currency)
	if err != nil {
		h.log.Error().Err(err).Msg("Statement import failed")
		middleware.WriteError(w, http.StatusBadRequest, "Unrecognized statement format")
		return
	}

	txs, err := h.store.Transactions(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load transactions")
		return
	}
	for _, c := range result.Accepted {
		txs = append(txs, domain.Transaction{
			ID:          uuid.NewString(),
			Date:        c.Date,
			Description: c.Description,
			Amount:      c.Amount,
			Category:    c.Category,
		})
	}
	if err := h.store.SaveTransactions(ctx, txs); err != nil {
		h.log.Error().Err(err).Msg("Failed to save transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save transactions")
		return
	}
	if err := refreshProjections(ctx, h.store); err != nil {
		h.log.Error().Err(err).Msg("Failed to refresh projections")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to refresh projections")
		return
	}

	h.log.Info().
		Int("imported", len(result.Accepted)).
		Int("skipped", result.Skipped).
		Str("currency", currency).
		Msg("Statement imported")

	middleware.WriteJSON(w, http.StatusOK, map[string]int{
		"imported": len(result.Accepted),
		"skipped":  result.Skipped,
	})
}

// SettingsHandler handles the currency selection and the conversation log.
type SettingsHandler struct {
	store *store.Store
	log   zerolog.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(st *store.Store, log zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{store: st, log: log}
}

// GetCurrency handles GET /api/currency
func (h *SettingsHandler) GetCurrency(w http.ResponseWriter, r *http.Request) {
	currency, err := h.store.Currency(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load currency")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"currency": currency})
}

// PutCurrency handles PUT /api/currency
func (h *SettingsHandler) PutCurrency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Currency == "" {
		middleware.WriteError(w, http.StatusBadRequest, "currency is required")
		return
	}

	if err := h.store.SetCurrency(r.Context(), req.Currency); err != nil {
		h.log.Error().Err(err).Msg("Failed to save currency")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"currency": req.Currency})
}

// GetConversation handles GET /api/conversation
func (h *SettingsHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := h.store.Conversation(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load conversation")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load conversation")
		return
	}

	if conv == nil {
		conv = []domain.ChatMessage{}
	}
	middleware.WriteJSON(w, http.StatusOK, conv)
}
