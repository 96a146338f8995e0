package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/korvarsson/bdget/internal/config"
	"github.com/korvarsson/bdget/internal/domain"
	"github.com/korvarsson/bdget/internal/gcsfetch"
	"github.com/korvarsson/bdget/internal/importer"
	"github.com/korvarsson/bdget/internal/interpreter"
	"github.com/korvarsson/bdget/internal/logger"
	"github.com/korvarsson/bdget/internal/money"
	"github.com/korvarsson/bdget/internal/projection"
	"github.com/korvarsson/bdget/internal/store"

	"github.com/google/uuid"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "chat":
		runChat(log)
	case "import":
		runImport(log)
	case "project":
		runProject(log)
	case "inspect":
		runInspect(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("bdget CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  chat      Run a free-text command against the ledger")
	fmt.Println("  import    Import a bank statement CSV from a file or GCS")
	fmt.Println("  project   Refresh goal completion estimates")
	fmt.Println("  inspect   Print the ledger, goals and conversation")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func openStore(log zerolog.Logger, dataDir string) *store.Store {
	kv, err := store.NewFileKV(dataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open data directory")
	}
	return store.New(kv, config.Load().Currency)
}

func runChat(log zerolog.Logger) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	message := fs.String("message", "", "Command text, e.g. \"add expense 500 for groceries tomorrow\"")
	dataDir := fs.String("data-dir", config.Load().DataDir, "Directory for the JSON data files")
	fs.Parse(os.Args[2:])

	if *message == "" {
		log.Fatal().Msg("Error: -message is required")
	}

	ctx := logger.WithContext(context.Background(), log)
	st := openStore(log, *dataDir)

	txs, err := st.Transactions(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load transactions")
	}
	currency, err := st.Currency(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load settings")
	}

	result := interpreter.New().Interpret(*message, interpreter.Context{
		Transactions: txs,
		Currency:     currency,
		Now:          civil.DateOf(time.Now()),
	})

	if result.Transaction != nil {
		if err := st.UpsertTransaction(ctx, *result.Transaction); err != nil {
			log.Fatal().Err(err).Msg("Failed to save transaction")
		}
	}
	if result.Goal != nil {
		if err := st.UpsertGoal(ctx, *result.Goal); err != nil {
			log.Fatal().Err(err).Msg("Failed to save goal")
		}
	}
	if result.Transaction != nil || result.Goal != nil {
		if err := refreshGoals(ctx, st); err != nil {
			log.Fatal().Err(err).Msg("Failed to refresh projections")
		}
	}

	conv, err := st.Conversation(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load conversation")
	}
	conv = interpreter.AppendExchange(conv, *message, result.Response)
	if err := st.SaveConversation(ctx, conv); err != nil {
		log.Fatal().Err(err).Msg("Failed to save conversation")
	}

	fmt.Println(result.Response)
}

func runImport(log zerolog.Logger) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to a local statement CSV")
	gcsURI := fs.String("gcs-uri", "", "gs:// URI of a statement CSV")
	currency := fs.String("currency", "", "Target currency (defaults to the stored selection)")
	dataDir := fs.String("data-dir", config.Load().DataDir, "Directory for the JSON data files")
	fs.Parse(os.Args[2:])

	if (*filePath == "") == (*gcsURI == "") {
		log.Fatal().Msg("Error: exactly one of -file or -gcs-uri is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var raw []byte
	var err error
	if *filePath != "" {
		raw, err = os.ReadFile(*filePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read statement file")
		}
	} else {
		log.Info().Str("gcs_uri", *gcsURI).Msg("Downloading statement")
		raw, err = gcsfetch.Fetch(ctx, *gcsURI)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to download statement")
		}
	}

	st := openStore(log, *dataDir)

	target := *currency
	if target == "" {
		target, err = st.Currency(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load settings")
		}
	}

	result, err := importer.New(nil).Import(raw, target)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	txs, err := st.Transactions(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load transactions")
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
	if err := st.SaveTransactions(ctx, txs); err != nil {
		log.Fatal().Err(err).Msg("Failed to save transactions")
	}
	if err := refreshGoals(ctx, st); err != nil {
		log.Fatal().Err(err).Msg("Failed to refresh projections")
	}

	fmt.Printf("Imported %d transactions, skipped %d rows.\n", len(result.Accepted), result.Skipped)
}

func runProject(log zerolog.Logger) {
	fs := flag.NewFlagSet("project", flag.ExitOnError)
	dataDir := fs.String("data-dir", config.Load().DataDir, "Directory for the JSON data files")
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	st := openStore(log, *dataDir)

	if err := refreshGoals(ctx, st); err != nil {
		log.Fatal().Err(err).Msg("Failed to refresh projections")
	}

	goals, err := st.Goals(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load goals")
	}
	currency, err := st.Currency(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load settings")
	}

	fmt.Printf("=== Goals (%d) ===\n", len(goals))
	for _, g := range goals {
		fmt.Printf("\n%s\n", g.Name)
		fmt.Printf("   Target:    %s\n", money.Format(g.TargetAmount, currency))
		fmt.Printf("   Saved:     %s\n", money.Format(g.CurrentAmount, currency))
		if g.Deadline != nil {
			fmt.Printf("   Deadline:  %s\n", g.Deadline)
		}
		if g.EstimatedCompletion != nil {
			fmt.Printf("   Estimated: %s\n", g.EstimatedCompletion)
		} else {
			fmt.Printf("   Estimated: no attainable date at the current savings rate\n")
		}
	}
	fmt.Println()
}

func runInspect(log zerolog.Logger) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dataDir := fs.String("data-dir", config.Load().DataDir, "Directory for the JSON data files")
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	st := openStore(log, *dataDir)

	currency, err := st.Currency(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load settings")
	}
	txs, err := st.Transactions(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load transactions")
	}
	incomes, err := st.PredictedIncomes(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load predicted incomes")
	}
	conv, err := st.Conversation(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load conversation")
	}

	fmt.Printf("Currency: %s\n", currency)

	fmt.Printf("\n=== Transactions (%d) ===\n", len(txs))
	for i, tx := range txs {
		fmt.Printf("\n%d. %s\n", i+1, tx.Description)
		fmt.Printf("   Date:     %s\n", tx.Date)
		fmt.Printf("   Amount:   %s\n", money.Format(tx.Amount, currency))
		fmt.Printf("   Category: %s\n", tx.Category)
	}

	fmt.Printf("\n=== Predicted income (%d) ===\n", len(incomes))
	for _, p := range incomes {
		fmt.Printf("  %s  %s  %s\n", p.Date, p.Source, money.Format(p.Amount, currency))
	}

	fmt.Printf("\n=== Conversation (%d turns) ===\n", len(conv))
	for _, m := range conv {
		fmt.Printf("  [%s] %s\n", m.Sender, m.Text)
	}
	fmt.Println()
}

// refreshGoals recomputes goal estimates from the ledger, persisting only on
// change.
func refreshGoals(ctx context.Context, st *store.Store) error {
	goals, err := st.Goals(ctx)
	if err != nil {
		return err
	}
	txs, err := st.Transactions(ctx)
	if err != nil {
		return err
	}
	updated := projection.Refresh(goals, txs, civil.DateOf(time.Now()))
	if projection.Equal(goals, updated) {
		return nil
	}
	return st.SaveGoals(ctx, updated)
}
