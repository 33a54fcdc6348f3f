// Standalone serving mode: the same routes as the Lambda handler behind a
// plain HTTP listener, for local development and self-hosted runs.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/viper"

	"leadgen-agent/handler"
	"leadgen-agent/internal/integrations/openai"
	"leadgen-agent/internal/integrations/paramstore"
	"leadgen-agent/internal/repository"
	"leadgen-agent/internal/usecase"
)

type serverConfig struct {
	ServerPort    string `mapstructure:"SERVER_PORT"`
	TableName     string `mapstructure:"TABLE_NAME"`
	ParamPrefix   string `mapstructure:"PARAM_PREFIX"`
	OpenAIModel   string `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL"`
	ExemptEmails  string `mapstructure:"EXEMPT_EMAILS"`
}

func loadConfig() (serverConfig, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")

	// A missing .env is fine; env vars alone are enough.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return serverConfig{}, err
			}
		}
	}
	for _, key := range []string{"SERVER_PORT", "TABLE_NAME", "PARAM_PREFIX", "OPENAI_MODEL", "OPENAI_BASE_URL", "EXEMPT_EMAILS"} {
		_ = v.BindEnv(key)
	}

	var cfg serverConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return serverConfig{}, err
	}
	return cfg, nil
}

func main() {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if cfg.TableName == "" || cfg.ParamPrefix == "" {
		slog.Error("TABLE_NAME and PARAM_PREFIX are required")
		os.Exit(1)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	store, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.TableName)
	if err != nil {
		slog.Error("failed to create store", "err", err)
		os.Exit(1)
	}

	var openaiOpts []openai.Option
	if cfg.OpenAIBaseURL != "" {
		openaiOpts = append(openaiOpts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}
	openaiClient, err := openai.NewClient(ssmClient, cfg.ParamPrefix, openaiOpts...)
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}

	quota, err := usecase.NewQuotaService(store, splitList(cfg.ExemptEmails))
	if err != nil {
		slog.Error("failed to create quota service", "err", err)
		os.Exit(1)
	}
	submit, err := usecase.NewSubmitService(store, store, quota)
	if err != nil {
		slog.Error("failed to create submit service", "err", err)
		os.Exit(1)
	}
	generate, err := usecase.NewGenerateService(store, openaiClient, store, cfg.OpenAIModel)
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

	h, err := handler.NewHandler(quota, submit, generate, admin, leadQuery)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
