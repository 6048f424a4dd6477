package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/telemetra/fleetquery/internal/ai"
	"github.com/telemetra/fleetquery/internal/config"
	"github.com/telemetra/fleetquery/internal/db"
	"github.com/telemetra/fleetquery/internal/evaluation"
	"github.com/telemetra/fleetquery/internal/handler"
	"github.com/telemetra/fleetquery/internal/job"
	"github.com/telemetra/fleetquery/internal/middleware"
	"github.com/telemetra/fleetquery/internal/notify"
	"github.com/telemetra/fleetquery/internal/reportstore"
	"github.com/telemetra/fleetquery/internal/repo"
	"github.com/telemetra/fleetquery/internal/schedule"
	"github.com/telemetra/fleetquery/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "fleetquery",
		Short: "natural language analytics over fleet telemetry",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the fleetquery server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(configPath)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.RunServer()
		},
	}

	evalCmd := &cobra.Command{
		Use:   "eval",
		Short: "run one evaluation pass over recent query history",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(configPath)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Evaluation.Run(context.Background())
		},
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "upsert the built-in knowledge documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(configPath)
			if err != nil {
				return err
			}
			defer app.Close()
			count, err := app.Knowledge.Reseed(context.Background())
			if err != nil {
				return err
			}
			logutil.GetLogger(context.Background()).Info("seeding completed", zap.Int("documents", count))
			return nil
		},
	}

	goldenCmd := &cobra.Command{
		Use:   "export-golden",
		Short: "export a curated golden dataset from answered history",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(configPath)
			if err != nil {
				return err
			}
			defer app.Close()
			dataset, err := evaluation.ExportGolden(context.Background(), app.ChatRepo, app.ReportStore)
			if err != nil {
				return err
			}
			logutil.GetLogger(context.Background()).Info("golden dataset ready",
				zap.String("name", dataset.Name), zap.Int("examples", len(dataset.Examples)))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd, evalCmd, seedCmd, goldenCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

type App struct {
	Config      *config.Config
	DB          *sql.DB
	ChatRepo    *repo.ChatRepo
	Chat        *service.ChatService
	Feedback    *service.FeedbackService
	Knowledge   *service.KnowledgeService
	Evaluation  *evaluation.Service
	ReportStore reportstore.Store
}

func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func buildApp(configPath string) (*App, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

	dbConn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(dbConn); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	embedProvider, err := ai.NewEmbedProvider(cfg.Embedding.Provider, cfg.Embedding.Data)
	if err != nil {
		return nil, fmt.Errorf("init embedding provider: %w", err)
	}
	generateProvider, err := ai.NewGenerateProvider(cfg.Generation.Provider, cfg.Generation.Data)
	if err != nil {
		return nil, fmt.Errorf("init generation provider: %w", err)
	}
	genTimeout := time.Duration(cfg.Generation.TimeoutSeconds) * time.Second

	knowledgeRepo := repo.NewKnowledgeRepo(dbConn)
	chatRepo := repo.NewChatRepo(dbConn)

	embedService := service.NewEmbedService(embedProvider, cfg.Embedding.Model, cfg.Embedding.Dim)
	retriever := service.NewRetriever(embedService, knowledgeRepo, cfg.Retrieval.TopK)
	generator := service.NewGenerator(generateProvider, cfg.Generation.Model, cfg.Generation.MaxTokens, genTimeout)
	executor := service.NewExecutor(dbConn)
	insight := service.NewInsightService(generateProvider, cfg.Generation.Model, cfg.Generation.InsightMaxTokens, genTimeout)
	chatService := service.NewChatService(retriever, generator, executor, insight, chatRepo)
	feedbackService := service.NewFeedbackService(chatRepo, knowledgeRepo, embedService)
	knowledgeService := service.NewKnowledgeService(knowledgeRepo, embedService)

	store, err := reportstore.New(cfg.Evaluation.ReportStore)
	if err != nil {
		return nil, fmt.Errorf("init report store: %w", err)
	}
	var notifier notify.Notifier
	if cfg.Evaluation.SlackWebhookURL != "" {
		notifier = notify.NewSlackNotifier(cfg.Evaluation.SlackWebhookURL)
	}
	judge := evaluation.NewJudge(generateProvider, cfg.Generation.JudgeModel, genTimeout)
	evalService := evaluation.NewService(
		chatRepo,
		judge,
		cfg.Evaluation.JudgeSampleSize,
		time.Duration(cfg.Evaluation.WindowHours)*time.Hour,
		notifier,
		store,
	)

	return &App{
		Config:      cfg,
		DB:          dbConn,
		ChatRepo:    chatRepo,
		Chat:        chatService,
		Feedback:    feedbackService,
		Knowledge:   knowledgeService,
		Evaluation:  evalService,
		ReportStore: store,
	}, nil
}

func (a *App) RunServer() error {
	cfg := a.Config
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("generation_provider", cfg.Generation.Provider),
	)

	deps := handler.RouterDeps{
		Chat:            handler.NewChatHandler(a.Chat),
		Feedback:        handler.NewFeedbackHandler(a.Feedback),
		Knowledge:       handler.NewKnowledgeHandler(a.Knowledge),
		QueryRateWindow: time.Duration(cfg.RateLimitSeconds) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllow),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewEvaluationJob(a.Evaluation), cfg.Evaluation.CronSpec); err != nil {
		return fmt.Errorf("schedule evaluation: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()
	logutil.GetLogger(context.Background()).Info("http server listening",
		zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
