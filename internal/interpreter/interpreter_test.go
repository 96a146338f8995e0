package interpreter

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/korvarsson/bdget/internal/domain"
)

// Friday, 10 January 2025.
var refNow = civil.Date{Year: 2025, Month: time.January, Day: 10}

func testContext(txs []domain.Transaction) Context {
	return Context{Transactions: txs, Currency: "EUR", Now: refNow}
}

func TestInterpret_CreateGoal(t *testing.T) {
	in := New()

	got := in.Interpret("add goal New Car for 100000", testContext(nil))

	if got.Intent != IntentCreateGoal {
		t.Fatalf("Intent = %q, want %q", got.Intent, IntentCreateGoal)
	}
	if got.Goal == nil {
		t.Fatal("Goal = nil, want a new goal")
	}
	if got.Goal.Name != "New Car" {
		t.Errorf("Goal.Name = %q, want New Car", got.Goal.Name)
	}
	if got.Goal.TargetAmount != 100000 {
		t.Errorf("Goal.TargetAmount = %v, want 100000", got.Goal.TargetAmount)
	}
	if got.Goal.CurrentAmount != 0 {
		t.Errorf("Goal.CurrentAmount = %v, want 0", got.Goal.CurrentAmount)
	}
	if got.Goal.ID == "" {
		t.Error("Goal.ID is empty")
	}
	if !strings.Contains(got.Response, "100 000.00") {
		t.Errorf("Response = %q, want the formatted target in it", got.Response)
	}
}

func TestInterpret_CreateGoalWithDeadline(t *testing.T) {
	in := New()

	got := in.Interpret("create goal Vacation for 5000 by 31/12", testContext(nil))

	if got.Goal == nil {
		t.Fatal("Goal = nil, want a new goal")
	}
	if got.Goal.TargetAmount != 5000 {
		t.Errorf("Goal.TargetAmount = %v, want 5000", got.Goal.TargetAmount)
	}
	want := civil.Date{Year: 2025, Month: time.December, Day: 31}
	if got.Goal.Deadline == nil || *got.Goal.Deadline != want {
		t.Errorf("Goal.Deadline = %v, want %v", got.Goal.Deadline, want)
	}
}

func TestInterpret_CreateGoalGuidance(t *testing.T) {
	in := New()

	got := in.Interpret("create goal", testContext(nil))

	if got.Intent != IntentCreateGoal {
		t.Fatalf("Intent = %q, want %q", got.Intent, IntentCreateGoal)
	}
	if got.Goal != nil {
		t.Errorf("Goal = %+v, want nil on a guidance response", got.Goal)
	}
	if !strings.Contains(got.Response, "add goal") {
		t.Errorf("Response = %q, want usage guidance", got.Response)
	}
}

func TestInterpret_AddExpense(t *testing.T) {
	in := New()

	got := in.Interpret("add expense 500 for groceries tomorrow", testContext(nil))

	if got.Intent != IntentAddTransaction {
		t.Fatalf("Intent = %q, want %q", got.Intent, IntentAddTransaction)
	}
	if got.Transaction == nil {
		t.Fatal("Transaction = nil, want a new transaction")
	}
	tx := got.Transaction
	if tx.Amount != -500 {
		t.Errorf("Amount = %v, want -500", tx.Amount)
	}
	if tx.Description != "groceries" {
		t.Errorf("Description = %q, want groceries", tx.Description)
	}
	want := civil.Date{Year: 2025, Month: time.January, Day: 11}
	if tx.Date != want {
		t.Errorf("Date = %v, want %v", tx.Date, want)
	}
	if tx.Category != domain.DefaultCategory {
		t.Errorf("Category = %q, want %q", tx.Category, domain.DefaultCategory)
	}
	if tx.ID == "" {
		t.Error("ID is empty")
	}
}

func TestInterpret_AddIncome(t *testing.T) {
	in := New()

	got := in.Interpret("received 2500 for salary", testContext(nil))

	if got.Transaction == nil {
		t.Fatal("Transaction = nil, want a new transaction")
	}
	if got.Transaction.Amount != 2500 {
		t.Errorf("Amount = %v, want 2500", got.Transaction.Amount)
	}
	if got.Transaction.Description != "salary" {
		t.Errorf("Description = %q, want salary", got.Transaction.Description)
	}
	// No date phrase defaults to the reference day.
	if got.Transaction.Date != refNow {
		t.Errorf("Date = %v, want %v", got.Transaction.Date, refNow)
	}
}

func TestInterpret_AddTransactionGuidance(t *testing.T) {
	in := New()

	got := in.Interpret("add expense for things", testContext(nil))

	if got.Intent != IntentAddTransaction {
		t.Fatalf("Intent = %q, want %q", got.Intent, IntentAddTransaction)
	}
	if got.Transaction != nil {
		t.Errorf("Transaction = %+v, want nil without an amount", got.Transaction)
	}
	if !strings.Contains(got.Response, "add expense 500") {
		t.Errorf("Response = %q, want usage guidance", got.Response)
	}
}

func spendingLedger() []domain.Transaction {
	tx := func(m time.Month, day int, desc string, amount float64) domain.Transaction {
		return domain.Transaction{
			Date:        civil.Date{Year: 2024, Month: m, Day: day},
			Description: desc,
			Amount:      amount,
			Category:    domain.DefaultCategory,
		}
	}
	jan := tx(time.January, 5, "FUEL STATION", -300)
	jan.Date.Year = 2025
	return []domain.Transaction{
		tx(time.December, 5, "FUEL STATION", -1000),
		tx(time.December, 20, "FUEL STATION", -500),
		tx(time.December, 10, "GROCERIES", -200),
		tx(time.December, 1, "SALARY", 2500),
		jan,
	}
}

func TestInterpret_QuerySpending(t *testing.T) {
	in := New()
	ctx := testContext(spendingLedger())

	got := in.Interpret("how much did I spend on fuel last month", ctx)

	if got.Intent != IntentQuerySpending {
		t.Fatalf("Intent = %q, want %q", got.Intent, IntentQuerySpending)
	}
	if got.Transaction != nil || got.Goal != nil {
		t.Error("a query must not produce a mutation")
	}
	if !strings.Contains(got.Response, "1 500.00") {
		t.Errorf("Response = %q, want the 1 500.00 total in it", got.Response)
	}
	if !strings.Contains(got.Response, "2 transactions") {
		t.Errorf("Response = %q, want the transaction count in it", got.Response)
	}
}

func TestInterpret_QuerySpendingNoKeyword(t *testing.T) {
	in := New()
	ctx := testContext(spendingLedger())

	got := in.Interpret("how much did I spend this month", ctx)

	if !strings.Contains(got.Response, "300.00") {
		t.Errorf("Response = %q, want the current month's total in it", got.Response)
	}
}

func TestInterpret_QuerySpendingNoMatches(t *testing.T) {
	in := New()
	ctx := testContext(spendingLedger())

	got := in.Interpret("how much did I spend on unicorns last month", ctx)

	if !strings.Contains(got.Response, "unicorns") {
		t.Errorf("Response = %q, want the keyword echoed back", got.Response)
	}
	if strings.Contains(got.Response, "1 500.00") {
		t.Errorf("Response = %q, reported a total for an unmatched keyword", got.Response)
	}
}

func TestInterpret_Unknown(t *testing.T) {
	in := New()

	got := in.Interpret("hello there", testContext(nil))

	if got.Intent != IntentUnknown {
		t.Fatalf("Intent = %q, want %q", got.Intent, IntentUnknown)
	}
	if got.Transaction != nil || got.Goal != nil {
		t.Error("unknown input must not produce a mutation")
	}
	for _, hint := range []string{"add goal", "add expense", "how much"} {
		if !strings.Contains(got.Response, hint) {
			t.Errorf("Response = %q, want capability hint %q", got.Response, hint)
		}
	}
}

func TestExtractConfidence(t *testing.T) {
	tests := []struct {
		text string
		want Confidence
	}{
		{"add goal New Car for 100000", ConfidenceWellFormed},
		{"add goal New Car", ConfidencePartial},
		{"create goal", ConfidenceNone},
	}

	for _, tt := range tests {
		if got := extractCreateGoal(tt.text, Context{}); got.Confidence != tt.want {
			t.Errorf("extractCreateGoal(%q).Confidence = %q, want %q", tt.text, got.Confidence, tt.want)
		}
	}
}

func TestAppendExchange(t *testing.T) {
	log := []domain.ChatMessage{{Sender: domain.SenderUser, Text: "earlier"}}

	log = AppendExchange(log, "add expense 5 for tea", "Recorded.")

	if len(log) != 3 {
		t.Fatalf("len = %d, want 3", len(log))
	}
	if log[1].Sender != domain.SenderUser || log[1].Text != "add expense 5 for tea" {
		t.Errorf("user turn = %+v", log[1])
	}
	if log[2].Sender != domain.SenderAssistant || log[2].Text != "Recorded." {
		t.Errorf("assistant turn = %+v", log[2])
	}
}
