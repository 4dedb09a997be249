package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/infra"
	"server/internal/infra/credentials"
)

func main() {
	var (
		tokenFlag    string
		providerFlag string
	)
	flag.StringVar(&tokenFlag, "token", "", "API token for the selected provider (fallbacks to environment)")
	flag.StringVar(&providerFlag, "provider", credentials.ProviderHomeDesign, "Provider to configure (homedesign, replicate or openai)")
	flag.Parse()

	provider := strings.TrimSpace(strings.ToLower(providerFlag))
	switch provider {
	case credentials.ProviderHomeDesign, credentials.ProviderReplicate, credentials.ProviderOpenAI:
	case "":
		provider = credentials.ProviderHomeDesign
	default:
		fmt.Fprintf(os.Stderr, "unsupported provider %q\n", providerFlag)
		os.Exit(1)
	}

	token := strings.TrimSpace(tokenFlag)
	if token == "" {
		switch provider {
		case credentials.ProviderReplicate:
			token = strings.TrimSpace(os.Getenv("REPLICATE_API_TOKEN"))
		case credentials.ProviderOpenAI:
			token = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		default:
			token = strings.TrimSpace(os.Getenv("HOME_DESIGN_API_TOKEN"))
		}
	}
	if token == "" {
		fmt.Fprintf(os.Stderr, "%s API token is required via -token or environment\n", strings.ToUpper(provider))
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "providertoken").Str("provider", provider).Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	ctxExec, cancelExec := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelExec()
	if err := store.SetToken(ctxExec, provider, token); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist %s api token: %v\n", provider, err)
		os.Exit(1)
	}

	fmt.Printf("%s API token stored successfully\n", strings.ToUpper(provider))
}
