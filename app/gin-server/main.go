package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/intervuehq/intervue/config"
	"github.com/intervuehq/intervue/internal/api/handlers"
	"github.com/intervuehq/intervue/internal/api/routes"
	"github.com/intervuehq/intervue/internal/cache"
	"github.com/intervuehq/intervue/internal/logger"
	"github.com/intervuehq/intervue/internal/providers/extract"
	"github.com/intervuehq/intervue/internal/providers/llm"
	"github.com/intervuehq/intervue/internal/providers/stt"
	"github.com/intervuehq/intervue/internal/providers/tts"
	mongorepo "github.com/intervuehq/intervue/internal/repositories/mongo"
	pgrepo "github.com/intervuehq/intervue/internal/repositories/postgres"
	"github.com/intervuehq/intervue/internal/services"
	"github.com/intervuehq/intervue/internal/storage"
	"github.com/intervuehq/intervue/internal/workers"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()
	log := logger.New()

	ctx := context.Background()

	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("postgres init failed")
	}
	if err := config.MigratePostgres(); err != nil {
		log.WithError(err).Fatal("postgres migration failed")
	}
	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("mongo init failed")
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.WithError(err).Fatal("mongo index setup failed")
	}
	if err := config.InitRedis(); err != nil {
		log.WithError(err).Fatal("redis init failed")
	}

	// Providers. The LLM is required; speech and storage degrade to
	// text-only interviews when their credentials are absent.
	gemini, err := llm.NewVertexGemini(ctx,
		os.Getenv("GCP_PROJECT_ID"),
		envOr("GCP_LOCATION", "us-central1"),
		envOr("GEMINI_MODEL", "gemini-1.5-flash"),
	)
	if err != nil {
		log.WithError(err).Fatal("vertex gemini init failed")
	}
	defer gemini.Close()

	var embedder llm.Embedder
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		e, err := llm.NewGeminiEmbedder(ctx, key, envOr("EMBEDDING_MODEL", "text-embedding-004"))
		if err != nil {
			log.WithError(err).Warn("embedder init failed, resume embeddings disabled")
		} else {
			embedder = e
			defer e.Close()
		}
	}

	var sttProvider stt.Provider
	if sp, err := stt.NewGoogleSpeech(ctx); err != nil {
		log.WithError(err).Warn("speech-to-text init failed, voice answers disabled")
	} else {
		sttProvider = sp
	}

	var ttsProvider tts.Provider
	if tp, err := tts.NewGoogleTTS(ctx); err != nil {
		log.WithError(err).Warn("text-to-speech init failed, spoken questions disabled")
	} else {
		ttsProvider = tp
	}

	var uploader storage.Uploader
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		up, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			log.WithError(err).Warn("gcs init failed, resume upload disabled")
		} else {
			uploader = up
			defer up.Close()
		}
	}

	// Repositories
	db := config.PostgresDB
	mdb := config.MongoDatabase()

	sessionRepo := pgrepo.NewSessionRepo(db)
	userRepo := pgrepo.NewUserRepo(db)
	orgRepo := pgrepo.NewOrganizationRepo(db)
	templateRepo := pgrepo.NewTemplateRepo(db)
	profileRepo := pgrepo.NewProfileRepo(db)
	resumeRepo := pgrepo.NewResumeFileRepo(db)

	turnRepo := mongorepo.NewTurnRepo(mdb)
	reportRepo := mongorepo.NewReportRepo(mdb)

	redisCache := cache.NewRedisCache(config.RedisClient)

	// Services
	llmTimeout := 30 * time.Second
	transcriptSvc := services.NewTranscriptService(turnRepo)
	questionSvc := services.NewQuestionService(gemini, llmTimeout, log)
	reportSvc := services.NewReportService(reportRepo, turnRepo, sessionRepo, templateRepo, userRepo, gemini, redisCache, llmTimeout, log)
	sessionSvc := services.NewSessionService(sessionRepo, templateRepo, profileRepo, transcriptSvc, questionSvc, reportSvc, log)
	authSvc := services.NewAuthService(userRepo, orgRepo)
	templateSvc := services.NewTemplateService(templateRepo, redisCache)
	profileSvc := services.NewProfileService(profileRepo, resumeRepo, uploader, extract.NewPDFExtractor(), embedder, log)

	// Background answer workers (voice interviews over WS)
	if sttProvider != nil {
		pool := &workers.AnswerWorkerPool{
			Redis:    config.RedisClient,
			Sessions: sessionSvc,
			STT:      sttProvider,
			Logger:   log,
		}
		if err := pool.Start(ctx); err != nil {
			log.WithError(err).Fatal("answer worker pool failed to start")
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		Log:       log,
		Auth:      handlers.NewAuthHandler(authSvc),
		Interview: handlers.NewInterviewHandler(sessionSvc, templateSvc, transcriptSvc),
		Report:    handlers.NewReportHandler(reportSvc),
		Media:     handlers.NewMediaHandler(sttProvider, ttsProvider, log),
		Resume:    handlers.NewResumeHandler(profileSvc),
		WS:        handlers.NewWSHandler(sessionSvc, config.RedisClient),
	})

	port := envOr("PORT", "8080")
	log.WithField("port", port).Info("server starting")
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
