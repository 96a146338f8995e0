// Package interpreter maps free-text user commands to financial intents and
// evaluates them against the current ledger. Interpretation is local and
// rule-based: an ordered list of (predicate, extractor) pairs where the
// first matching intent wins.
package interpreter

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/korvarsson/bdget/internal/dates"
	"github.com/korvarsson/bdget/internal/domain"
	"github.com/korvarsson/bdget/internal/money"
)

// Intent is the classified purpose of a free-text command.
type Intent string

const (
	IntentCreateGoal     Intent = "create_goal"
	IntentAddTransaction Intent = "add_transaction"
	IntentQuerySpending  Intent = "query_spending"
	IntentUnknown        Intent = "unknown"
)

// Confidence grades how completely an intent's entities were extracted.
type Confidence string

const (
	ConfidenceWellFormed Confidence = "well-formed"
	ConfidencePartial    Confidence = "partial"
	ConfidenceNone       Confidence = "none"
)

// ParsedCommand is the transient extraction result produced and consumed
// within a single Interpret call. It is never persisted or compared across
// calls.
type ParsedCommand struct {
	Intent     Intent
	Entities   map[string]string
	Confidence Confidence
}

// Context carries the state one interpretation reads. The interpreter never
// mutates it.
type Context struct {
	Transactions []domain.Transaction
	Currency     string
	Now          civil.Date
}

// Result is the outcome of one interpretation: a human-readable response
// plus at most one domain mutation for the host to apply and persist.
type Result struct {
	Intent      Intent
	Response    string
	Transaction *domain.Transaction
	Goal        *domain.Goal
}

const capabilitySummary = `I can create goals ("add goal New Car for 100000"), ` +
	`record transactions ("add expense 500 for groceries tomorrow") ` +
	`and report spending ("how much did I spend on fuel last month").`

// rule pairs an intent predicate with its extractor and evaluator. Rules are
// tried in declaration order; the first predicate that matches wins.
type rule struct {
	match   func(lower string) bool
	extract func(text string, ctx Context) ParsedCommand
	eval    func(cmd ParsedCommand, ctx Context) Result
}

// Interpreter classifies and evaluates free-text commands.
type Interpreter struct {
	rules []rule
}

// New creates an interpreter with the standard intent rules.
func New() *Interpreter {
	return &Interpreter{rules: []rule{
		{matchCreateGoal, extractCreateGoal, evalCreateGoal},
		{matchQuerySpending, extractQuerySpending, evalQuerySpending},
		{matchAddTransaction, extractAddTransaction, evalAddTransaction},
	}}
}

// Interpret classifies the text, extracts entities and evaluates the intent.
// Unparsable input never fails: it degrades to the Unknown intent or an
// intent-specific guidance response with no mutation.
func (in *Interpreter) Interpret(text string, ctx Context) Result {
	lower := strings.ToLower(text)
	for _, r := range in.rules {
		if r.match(lower) {
			return r.eval(r.extract(text, ctx), ctx)
		}
	}
	return Result{Intent: IntentUnknown, Response: capabilitySummary}
}

// AppendExchange records one user turn and one assistant turn on the
// conversation log. Every interpretation appends exactly one of each.
func AppendExchange(log []domain.ChatMessage, userText, reply string) []domain.ChatMessage {
	return append(log,
		domain.ChatMessage{Sender: domain.SenderUser, Text: userText},
		domain.ChatMessage{Sender: domain.SenderAssistant, Text: reply},
	)
}

func matchCreateGoal(lower string) bool {
	return strings.Contains(lower, "create goal") || strings.Contains(lower, "add goal")
}

func matchQuerySpending(lower string) bool {
	return strings.Contains(lower, "how much") &&
		(strings.Contains(lower, "spend") || strings.Contains(lower, "spent"))
}

func matchAddTransaction(lower string) bool {
	for _, kw := range []string{"add expense", "add income", "spent", "received"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func evalCreateGoal(cmd ParsedCommand, ctx Context) Result {
	name := cmd.Entities["name"]
	amount, amountErr := money.ParseAmount(cmd.Entities["amount"])

	if name == "" || amountErr != nil || amount <= 0 {
		return Result{
			Intent: IntentCreateGoal,
			Response: `I couldn't work out the goal's name and target amount. ` +
				`Try "add goal New Car for 100000 by 31/12".`,
		}
	}

	goal := &domain.Goal{
		ID:           uuid.NewString(),
		Name:         name,
		TargetAmount: amount,
	}

	response := fmt.Sprintf("Created goal %q with a target of %s.",
		name, money.Format(amount, ctx.Currency))

	if phrase, ok := cmd.Entities["deadline"]; ok {
		if d, err := dates.Resolve(phrase, ctx.Now); err == nil {
			goal.Deadline = &d
			response += fmt.Sprintf(" Deadline: %s.", d)
		}
	}

	return Result{Intent: IntentCreateGoal, Response: response, Goal: goal}
}

func evalQuerySpending(cmd ParsedCommand, ctx Context) Result {
	keyword := cmd.Entities["keyword"]
	monthLabel := cmd.Entities["month"]

	start := civil.Date{Year: ctx.Now.Year, Month: ctx.Now.Month, Day: 1}
	if monthLabel == "last month" {
		start = addMonths(start, -1)
	}
	end := addMonths(start, 1)

	var total float64
	count := 0
	for _, t := range ctx.Transactions {
		if !t.IsExpense() || t.Date.Before(start) || !t.Date.Before(end) {
			continue
		}
		if keyword != "" && !matchesKeyword(t, keyword) {
			continue
		}
		total += -t.Amount
		count++
	}

	var response string
	switch {
	case keyword != "" && count > 0:
		response = fmt.Sprintf("You spent %s on %s %s (%s).",
			money.Format(total, ctx.Currency), keyword, monthLabel, countLabel(count))
	case keyword != "":
		response = fmt.Sprintf("No transactions matching %q %s.", keyword, monthLabel)
	default:
		response = fmt.Sprintf("You spent %s %s.",
			money.Format(total, ctx.Currency), monthLabel)
	}

	return Result{Intent: IntentQuerySpending, Response: response}
}

func evalAddTransaction(cmd ParsedCommand, ctx Context) Result {
	amount, amountErr := money.ParseAmount(cmd.Entities["amount"])
	if amountErr != nil || amount <= 0 {
		return Result{
			Intent: IntentAddTransaction,
			Response: `I couldn't find a positive amount in that. ` +
				`Try "add expense 500 for groceries tomorrow".`,
		}
	}

	direction := "income"
	signed := amount
	if cmd.Entities["direction"] == "expense" {
		direction = "expense"
		signed = -amount
	}

	date := ctx.Now
	if d, err := dates.Resolve(cmd.Entities["date"], ctx.Now); err == nil {
		date = d
	}

	desc := cmd.Entities["description"]
	if desc == "" {
		desc = strings.ToUpper(direction[:1]) + direction[1:]
	}

	tx := &domain.Transaction{
		ID:          uuid.NewString(),
		Date:        date,
		Description: desc,
		Amount:      signed,
		Category:    domain.DefaultCategory,
	}

	response := fmt.Sprintf("Recorded %s of %s for %s on %s.",
		direction, money.Format(amount, ctx.Currency), desc, date)

	return Result{Intent: IntentAddTransaction, Response: response, Transaction: tx}
}

func matchesKeyword(t domain.Transaction, keyword string) bool {
	k := strings.ToLower(keyword)
	return strings.Contains(strings.ToLower(t.Category), k) ||
		strings.Contains(strings.ToLower(t.Description), k)
}

func countLabel(n int) string {
	if n == 1 {
		return "1 transaction"
	}
	return fmt.Sprintf("%d transactions", n)
}

func addMonths(d civil.Date, months int) civil.Date {
	y, m := d.Year, int(d.Month)+months
	for m < 1 {
		m += 12
		y--
	}
	for m > 12 {
		m -= 12
		y++
	}
	return civil.Date{Year: y, Month: time.Month(m), Day: d.Day}
}
