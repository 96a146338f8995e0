package interpreter

import (
	"regexp"
	"strings"

	"github.com/korvarsson/bdget/internal/dates"
)

var (
	// A number with optional grouping separators and an optional attached
	// currency code or symbol.
	amountRe = regexp.MustCompile(`(\d(?:[\d \x{00a0}\x{202f},]*\d)?(?:[.,]\d+)?)(?:\s?(€|\$|£|₽|¥|[A-Z]{2,3}\b))?`)

	// The goal name sits between the keyword and the first qualifier word.
	goalNameRe = regexp.MustCompile(`(?i)(?:create|add)\s+goal\s+(.+?)(?:\s+(?:for|with|costing|of|target|deadline|by)\b.*)?$`)
	deadlineRe = regexp.MustCompile(`(?i)\b(?:by|deadline)\s+(.+)$`)

	// The spending keyword sits after on/for, bounded by a month qualifier
	// or punctuation.
	keywordRe = regexp.MustCompile(`(?i)\b(?:on|for)\s+(.+?)(?:\s+(?:this|last)\s+month\b.*|[?.!,].*)?$`)

	descRe = regexp.MustCompile(`(?i)\b(?:for|on)\s+(.+)$`)
)

const entityTrimSet = " .,!?"

func extractCreateGoal(text string, _ Context) ParsedCommand {
	ent := map[string]string{}

	if m := goalNameRe.FindStringSubmatch(text); m != nil {
		if name := strings.Trim(m[1], entityTrimSet); name != "" {
			ent["name"] = name
		}
	}

	// The deadline clause is cut off before the amount search so its day and
	// month digits cannot be mistaken for the target.
	body := text
	if loc := deadlineRe.FindStringSubmatchIndex(text); loc != nil {
		ent["deadline"] = strings.TrimSpace(text[loc[2]:loc[3]])
		body = text[:loc[0]]
	}
	if ms := amountRe.FindAllStringSubmatch(body, -1); len(ms) > 0 {
		ent["amount"] = ms[len(ms)-1][1]
	}

	conf := ConfidenceNone
	switch {
	case ent["name"] != "" && ent["amount"] != "":
		conf = ConfidenceWellFormed
	case ent["name"] != "" || ent["amount"] != "":
		conf = ConfidencePartial
	}
	return ParsedCommand{Intent: IntentCreateGoal, Entities: ent, Confidence: conf}
}

func extractQuerySpending(text string, _ Context) ParsedCommand {
	ent := map[string]string{"month": "this month"}
	if strings.Contains(strings.ToLower(text), "last month") {
		ent["month"] = "last month"
	}

	conf := ConfidencePartial
	if m := keywordRe.FindStringSubmatch(text); m != nil {
		if kw := strings.Trim(m[1], entityTrimSet); kw != "" {
			ent["keyword"] = kw
			conf = ConfidenceWellFormed
		}
	}
	return ParsedCommand{Intent: IntentQuerySpending, Entities: ent, Confidence: conf}
}

func extractAddTransaction(text string, _ Context) ParsedCommand {
	ent := map[string]string{"direction": "income"}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "expense") || strings.Contains(lower, "spent") {
		ent["direction"] = "expense"
	}

	loc := amountRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return ParsedCommand{Intent: IntentAddTransaction, Entities: ent, Confidence: ConfidencePartial}
	}
	ent["amount"] = text[loc[2]:loc[3]]

	// Everything after the amount carries the description and any date
	// phrase.
	tail := text[loc[1]:]
	ent["date"] = tail

	conf := ConfidencePartial
	if m := descRe.FindStringSubmatch(tail); m != nil {
		desc := m[1]
		if idx, ok := dates.ContainsDatePhrase(desc); ok {
			desc = desc[:idx]
		}
		if desc = strings.Trim(desc, entityTrimSet); desc != "" {
			ent["description"] = desc
			conf = ConfidenceWellFormed
		}
	}
	return ParsedCommand{Intent: IntentAddTransaction, Entities: ent, Confidence: conf}
}
