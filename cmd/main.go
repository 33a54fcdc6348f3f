package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"leadgen-agent/handler"
	"leadgen-agent/internal/integrations/openai"
	"leadgen-agent/internal/integrations/paramstore"
	"leadgen-agent/internal/repository"
	"leadgen-agent/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	tableName := mustEnv("TABLE_NAME")
	paramPrefix := mustEnv("PARAM_PREFIX")
	model := envOr("OPENAI_MODEL", "gpt-4o-mini")
	exemptEmails := envList("EXEMPT_EMAILS")

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	store, err := repository.New(awsdynamodb.NewFromConfig(cfg), tableName)
	if err != nil {
		slog.Error("failed to create store", "err", err)
		os.Exit(1)
	}
	openaiClient, err := openai.NewClient(ssmClient, paramPrefix)
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}

	// ---- Services ----
	quota, err := usecase.NewQuotaService(store, exemptEmails)
	if err != nil {
		slog.Error("failed to create quota service", "err", err)
		os.Exit(1)
	}
	submit, err := usecase.NewSubmitService(store, store, quota)
	if err != nil {
		slog.Error("failed to create submit service", "err", err)
		os.Exit(1)
	}
	generate, err := usecase.NewGenerateService(store, openaiClient, store, model)
	if err != nil {
		slog.Error("failed to create generate service", "err", err)
		os.Exit(1)
	}
	admin, err := usecase.NewAdminService(store)
	if err != nil {
		slog.Error("failed to create admin service", "err", err)
		os.Exit(1)
	}
	leadQuery, err := usecase.NewLeadQueryService(store)
	if err != nil {
		slog.Error("failed to create lead query service", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(quota, submit, generate, admin, leadQuery)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envList splits a comma-separated env var. An unset var returns nil, which
// services interpret as "use defaults".
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
