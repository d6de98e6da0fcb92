package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"certprep-service/internal/app"
	"certprep-service/internal/config"
	"certprep-service/internal/domain"
	"certprep-service/internal/genai"
	"certprep-service/internal/infra/memory"
	pgstore "certprep-service/internal/infra/postgres"
	redisstore "certprep-service/internal/infra/redis"
	transport "certprep-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the certification-study server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var quizStore app.QuizStore = memory.NewQuizStore()
	if redisClient != nil {
		quizStore = redisstore.NewQuizStore(redisClient, cfg.Keys.QuizPrefix, cfg.Keys.QuestionPrefix)
	}

	var profiles app.ProfileStore = memory.NewProfileStore(sampleProfiles())
	var certLoader app.CertInfoLoader = memory.NewStaticCertInfoStore(sampleCerts())
	if pool != nil {
		store := pgstore.NewProfileStore(pool)
		profiles = store
		certLoader = pgstore.NewCertInfoLoader(pool)
	}
	if redisClient != nil {
		certTTL := config.TTLDuration(cfg.CertCache.TTL, time.Hour)
		certLoader = redisstore.NewCertInfoCache(redisClient, certLoader, certTTL)
	}

	var messages transport.MessageLog = memory.NewMessageLog()
	if redisClient != nil {
		messages = redisstore.NewMessageLog(redisClient, cfg.Keys.MessagePrefix, 0)
	}

	apiKey := cfg.Model.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	modelClient := openai.NewClient(apiKey)
	modelOpts := genai.Options{
		Model:                cfg.Model.Name,
		Temperature:          cfg.Model.Temperature,
		TopP:                 cfg.Model.TopP,
		QuestionMaxTokens:    cfg.Model.QuestionMaxTokens,
		ExplanationMaxTokens: cfg.Model.ExplanationMaxTokens,
		GapMaxTokens:         cfg.Model.GapMaxTokens,
	}

	quizService := app.NewQuizService(
		quizStore,
		profiles,
		genai.NewQuestionGenerator(modelClient, modelOpts),
		genai.NewReportGenerator(modelClient, modelOpts),
	)
	profileService := app.NewProfileService(profiles, certLoader)

	agentHandler := transport.NewAgentHandler(quizService, profileService, cfg.Quiz.DefaultTopic, cfg.Quiz.DefaultQuestionCount)
	wsHandler := transport.NewWSHandler(genai.NewAgentClient(modelClient, modelOpts), messages)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("/agent", agentHandler)
	mux.HandleFunc("/ws/agent", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		log.Printf("starting certprep service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleProfiles provides a minimal data set; swap for the Postgres store in production.
func sampleProfiles() map[string]domain.UserProfile {
	return map[string]domain.UserProfile{
		"charles": {
			Username:        "charles",
			CurrentJobRole:  "Support Engineer",
			AspiringJobRole: "Solutions Architect",
			InterestAreas:   "Networking",
			RecommendedCert: "Certified Solutions Architect - Associate",
		},
	}
}

func sampleCerts() map[string]domain.CertInfo {
	return map[string]domain.CertInfo{
		"Certified Solutions Architect - Associate": {
			CertificationName: "Certified Solutions Architect - Associate",
			Level:             "Associate",
			ExamCode:          "SAA-C03",
			DurationMinutes:   130,
			PassingScore:      720,
			Domains:           []string{"Design Secure Architectures", "Design Resilient Architectures", "Design High-Performing Architectures", "Design Cost-Optimized Architectures"},
			Description:       "Validates the ability to design distributed systems on the cloud.",
		},
	}
}
