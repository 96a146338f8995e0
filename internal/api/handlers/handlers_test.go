package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/korvarsson/bdget/internal/domain"
	"github.com/korvarsson/bdget/internal/store"
)

// Friday, 10 January 2025.
var refNow = civil.Date{Year: 2025, Month: time.January, Day: 10}

func withFixedNow(t *testing.T) {
	t.Helper()
	prev := nowDate
	nowDate = func() civil.Date { return refNow }
	t.Cleanup(func() { nowDate = prev })
}

func newTestStore() *store.Store {
	return store.New(store.NewMemoryKV(), "EUR")
}

func TestChat_AddExpense(t *testing.T) {
	withFixedNow(t)
	st := newTestStore()
	h := NewChatHandler(st, zerolog.Nop())

	body := strings.NewReader(`{"message":"add expense 500 for groceries tomorrow"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", body)
	rec := httptest.NewRecorder()

	h.Chat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["intent"] != "add_transaction" {
		t.Errorf("intent = %q, want add_transaction", resp["intent"])
	}

	txs, err := st.Transactions(context.Background())
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	if txs[0].Amount != -500 {
		t.Errorf("Amount = %v, want -500", txs[0].Amount)
	}
	want := civil.Date{Year: 2025, Month: time.January, Day: 11}
	if txs[0].Date != want {
		t.Errorf("Date = %v, want %v", txs[0].Date, want)
	}

	conv, err := st.Conversation(context.Background())
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if len(conv) != 2 {
		t.Fatalf("conversation has %d turns, want 2", len(conv))
	}
	if conv[0].Sender != domain.SenderUser || conv[1].Sender != domain.SenderAssistant {
		t.Errorf("conversation senders = %q, %q", conv[0].Sender, conv[1].Sender)
	}
}

func TestChat_CreateGoalRefreshesProjection(t *testing.T) {
	withFixedNow(t)
	ctx := context.Background()
	st := newTestStore()

	// Three full months netting 2000/month before the reference day.
	var ledger []domain.Transaction
	for _, m := range []time.Month{time.October, time.November, time.December} {
		ledger = append(ledger, domain.Transaction{
			ID:     "in-" + m.String(),
			Date:   civil.Date{Year: 2024, Month: m, Day: 1},
			Amount: 2000,
		})
	}
	if err := st.SaveTransactions(ctx, ledger); err != nil {
		t.Fatalf("seed transactions: %v", err)
	}

	h := NewChatHandler(st, zerolog.Nop())
	body := strings.NewReader(`{"message":"add goal New Car for 10000"}`)
	rec := httptest.NewRecorder()

	h.Chat(rec, httptest.NewRequest(http.MethodPost, "/api/chat", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}

	goals, err := st.Goals(ctx)
	if err != nil {
		t.Fatalf("Goals: %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("got %d goals, want 1", len(goals))
	}
	if goals[0].EstimatedCompletion == nil {
		t.Fatal("EstimatedCompletion = nil, want a refreshed estimate")
	}
	// 10000 at 2000/month -> 5 months out.
	want := civil.Date{Year: 2025, Month: time.June, Day: 10}
	if *goals[0].EstimatedCompletion != want {
		t.Errorf("EstimatedCompletion = %v, want %v", *goals[0].EstimatedCompletion, want)
	}
}

func TestChat_UnknownLeavesStateUntouched(t *testing.T) {
	withFixedNow(t)
	ctx := context.Background()
	st := newTestStore()
	h := NewChatHandler(st, zerolog.Nop())

	body := strings.NewReader(`{"message":"hello there"}`)
	rec := httptest.NewRecorder()
	h.Chat(rec, httptest.NewRequest(http.MethodPost, "/api/chat", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	txs, _ := st.Transactions(ctx)
	goals, _ := st.Goals(ctx)
	if len(txs) != 0 || len(goals) != 0 {
		t.Errorf("unknown input mutated state: %d txs, %d goals", len(txs), len(goals))
	}
	conv, _ := st.Conversation(ctx)
	if len(conv) != 2 {
		t.Errorf("conversation has %d turns, want 2", len(conv))
	}
}

func TestTransactions_CreateAndList(t *testing.T) {
	withFixedNow(t)
	st := newTestStore()
	h := NewTransactionsHandler(st, zerolog.Nop())

	body := strings.NewReader(`{"description":"rent","amount":-1200}`)
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("Create status = %d, want 201; body: %s", rec.Code, rec.Body)
	}
	var created domain.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == "" {
		t.Error("created transaction has no id")
	}
	if created.Category != domain.DefaultCategory {
		t.Errorf("Category = %q, want the default", created.Category)
	}
	if created.Date != refNow {
		t.Errorf("Date = %v, want the reference day default", created.Date)
	}

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/transactions", nil))
	var listed []domain.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Errorf("List = %+v, want the created record", listed)
	}
}

func TestTransactions_CreateRejectsEmpty(t *testing.T) {
	st := newTestStore()
	h := NewTransactionsHandler(st, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(`{"amount":0}`)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTransactions_DeleteNotFound(t *testing.T) {
	st := newTestStore()
	h := NewTransactionsHandler(st, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest(http.MethodDelete, "/api/transactions/nope", nil), "nope")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestImport_Endpoint(t *testing.T) {
	withFixedNow(t)
	st := newTestStore()
	h := NewImportHandler(st, nil, zerolog.Nop())

	csv := "Booking Date,Description,Amount,Currency\n" +
		"15.01.2025,COFFEE SHOP,\"-3,50\",EUR\n" +
		"16.01.2025,HOTEL,\"-120,00\",USD\n"
	rec := httptest.NewRecorder()
	h.Import(rec, httptest.NewRequest(http.MethodPost, "/api/import?currency=EUR",
		strings.NewReader(csv)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["imported"] != 1 || resp["skipped"] != 1 {
		t.Errorf("got imported=%d skipped=%d, want 1 and 1", resp["imported"], resp["skipped"])
	}

	txs, _ := st.Transactions(context.Background())
	if len(txs) != 1 || txs[0].Description != "COFFEE SHOP" {
		t.Errorf("ledger = %+v, want the single accepted row", txs)
	}
	if txs[0].ID == "" {
		t.Error("imported transaction has no id")
	}
}

func TestImport_BadFormat(t *testing.T) {
	st := newTestStore()
	h := NewImportHandler(st, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Import(rec, httptest.NewRequest(http.MethodPost, "/api/import",
		strings.NewReader("Foo,Bar\n1,2\n")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSettings_Currency(t *testing.T) {
	st := newTestStore()
	h := NewSettingsHandler(st, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.PutCurrency(rec, httptest.NewRequest(http.MethodPut, "/api/currency",
		strings.NewReader(`{"currency":"RUB"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("PutCurrency status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.GetCurrency(rec, httptest.NewRequest(http.MethodGet, "/api/currency", nil))
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["currency"] != "RUB" {
		t.Errorf("currency = %q, want RUB", resp["currency"])
	}
}

func TestGoals_CreateStripsClientEstimate(t *testing.T) {
	withFixedNow(t)
	st := newTestStore()
	h := NewGoalsHandler(st, zerolog.Nop())

	body := strings.NewReader(`{"name":"Vacation","target_amount":5000,"estimated_completion":"2030-01-01"}`)
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/goals", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body)
	}

	goals, _ := st.Goals(context.Background())
	if len(goals) != 1 {
		t.Fatalf("got %d goals, want 1", len(goals))
	}
	// An empty ledger means no savings rate, so the refresh clears it.
	if goals[0].EstimatedCompletion != nil {
		t.Errorf("EstimatedCompletion = %v, want nil", *goals[0].EstimatedCompletion)
	}
}
