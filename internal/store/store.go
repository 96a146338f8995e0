package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/korvarsson/bdget/internal/domain"
)

// Blob keys. One collection per key, replaced wholesale on every save.
const (
	keyTransactions     = "transactions"
	keyGoals            = "goals"
	keyPredictedIncomes = "predicted_incomes"
	keySettings         = "settings"
	keyConversation     = "conversation"
)

// settings is the persisted shape of the singleton settings blob.
type settings struct {
	Currency string `json:"currency"`
}

// Store provides typed access to the application's persisted collections.
type Store struct {
	kv              KV
	defaultCurrency string
}

// New creates a store over the given KV. defaultCurrency is reported until
// the user selects one.
func New(kv KV, defaultCurrency string) *Store {
	return &Store{kv: kv, defaultCurrency: defaultCurrency}
}

// Transactions returns the full ledger. A never-saved ledger is empty, not an
// error.
func (s *Store) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	if err := s.load(ctx, keyTransactions, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// SaveTransactions replaces the full ledger.
func (s *Store) SaveTransactions(ctx context.Context, txs []domain.Transaction) error {
	return s.save(ctx, keyTransactions, txs)
}

// UpsertTransaction replaces the record with a matching id, or appends.
func (s *Store) UpsertTransaction(ctx context.Context, tx domain.Transaction) error {
	txs, err := s.Transactions(ctx)
	if err != nil {
		return err
	}
	txs = upsertByID(txs, tx, func(t domain.Transaction) string { return t.ID })
	return s.SaveTransactions(ctx, txs)
}

// DeleteTransaction removes the record with the given id, reporting whether
// it existed.
func (s *Store) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	txs, err := s.Transactions(ctx)
	if err != nil {
		return false, err
	}
	kept, removed := deleteByID(txs, id, func(t domain.Transaction) string { return t.ID })
	if !removed {
		return false, nil
	}
	return true, s.SaveTransactions(ctx, kept)
}

// Goals returns all savings goals.
func (s *Store) Goals(ctx context.Context) ([]domain.Goal, error) {
	var goals []domain.Goal
	if err := s.load(ctx, keyGoals, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

// SaveGoals replaces all savings goals.
func (s *Store) SaveGoals(ctx context.Context, goals []domain.Goal) error {
	return s.save(ctx, keyGoals, goals)
}

// UpsertGoal replaces the goal with a matching id, or appends.
func (s *Store) UpsertGoal(ctx context.Context, goal domain.Goal) error {
	goals, err := s.Goals(ctx)
	if err != nil {
		return err
	}
	goals = upsertByID(goals, goal, func(g domain.Goal) string { return g.ID })
	return s.SaveGoals(ctx, goals)
}

// DeleteGoal removes the goal with the given id, reporting whether it
// existed.
func (s *Store) DeleteGoal(ctx context.Context, id string) (bool, error) {
	goals, err := s.Goals(ctx)
	if err != nil {
		return false, err
	}
	kept, removed := deleteByID(goals, id, func(g domain.Goal) string { return g.ID })
	if !removed {
		return false, nil
	}
	return true, s.SaveGoals(ctx, kept)
}

// PredictedIncomes returns all expected future income records.
func (s *Store) PredictedIncomes(ctx context.Context) ([]domain.PredictedIncome, error) {
	var incomes []domain.PredictedIncome
	if err := s.load(ctx, keyPredictedIncomes, &incomes); err != nil {
		return nil, err
	}
	return incomes, nil
}

// SavePredictedIncomes replaces all expected future income records.
func (s *Store) SavePredictedIncomes(ctx context.Context, incomes []domain.PredictedIncome) error {
	return s.save(ctx, keyPredictedIncomes, incomes)
}

// UpsertPredictedIncome replaces the record with a matching id, or appends.
func (s *Store) UpsertPredictedIncome(ctx context.Context, income domain.PredictedIncome) error {
	incomes, err := s.PredictedIncomes(ctx)
	if err != nil {
		return err
	}
	incomes = upsertByID(incomes, income, func(p domain.PredictedIncome) string { return p.ID })
	return s.SavePredictedIncomes(ctx, incomes)
}

// DeletePredictedIncome removes the record with the given id, reporting
// whether it existed.
func (s *Store) DeletePredictedIncome(ctx context.Context, id string) (bool, error) {
	incomes, err := s.PredictedIncomes(ctx)
	if err != nil {
		return false, err
	}
	kept, removed := deleteByID(incomes, id, func(p domain.PredictedIncome) string { return p.ID })
	if !removed {
		return false, nil
	}
	return true, s.SavePredictedIncomes(ctx, kept)
}

// Currency returns the selected display currency, or the default when none
// was ever selected.
func (s *Store) Currency(ctx context.Context) (string, error) {
	var st settings
	if err := s.load(ctx, keySettings, &st); err != nil {
		return "", err
	}
	if st.Currency == "" {
		return s.defaultCurrency, nil
	}
	return st.Currency, nil
}

// SetCurrency persists the selected display currency.
func (s *Store) SetCurrency(ctx context.Context, currency string) error {
	return s.save(ctx, keySettings, settings{Currency: currency})
}

// Conversation returns the chat log, oldest turn first.
func (s *Store) Conversation(ctx context.Context) ([]domain.ChatMessage, error) {
	var log []domain.ChatMessage
	if err := s.load(ctx, keyConversation, &log); err != nil {
		return nil, err
	}
	return log, nil
}

// SaveConversation replaces the chat log.
func (s *Store) SaveConversation(ctx context.Context, log []domain.ChatMessage) error {
	return s.save(ctx, keyConversation, log)
}

func (s *Store) load(ctx context.Context, key string, out any) error {
	data, err := s.kv.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("load %q: decode: %w", key, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("save %q: encode: %w", key, err)
	}
	return s.kv.Save(ctx, key, data)
}

func upsertByID[T any](items []T, item T, id func(T) string) []T {
	for i := range items {
		if id(items[i]) == id(item) {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

func deleteByID[T any](items []T, target string, id func(T) string) ([]T, bool) {
	for i := range items {
		if id(items[i]) == target {
			return append(items[:i:i], items[i+1:]...), true
		}
	}
	return items, false
}
