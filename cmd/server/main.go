package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"ieltsreader/internal/audio"
	"ieltsreader/internal/config"
	"ieltsreader/internal/content"
	"ieltsreader/internal/database"
	"ieltsreader/internal/dictionary"
	"ieltsreader/internal/genai"
	"ieltsreader/internal/handlers"
	"ieltsreader/internal/logging"
	"ieltsreader/internal/repository"
	"ieltsreader/internal/security"
	"ieltsreader/internal/service"
	"ieltsreader/internal/srs"
	"ieltsreader/internal/validation"
	"ieltsreader/internal/vocab"
)

const (
	quizIdleTimeout    = 6 * time.Hour
	quizPruneInterval  = 15 * time.Minute
	rateLimitWindow    = time.Minute
	rateLimitCleanup   = 5 * time.Minute
	persisterCloseWait = 10 * time.Second
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "hash-password: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// hashPassword reads one line and prints the bcrypt hash to use as
// AUTH_PASSWORD_HASH
func hashPassword(in io.Reader, out io.Writer) error {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	password := strings.TrimRight(line, "\r\n")
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	startup := handlers.NewStartupStatus(
		handlers.StepDatabase,
		handlers.StepMigrations,
		handlers.StepContent,
		handlers.StepVocabulary,
		handlers.StepServer,
	)

	startup.SetCurrentStep(handlers.StepDatabase)
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("database connection established", "type", cfg.Database.Type)
	startup.CompleteStep(handlers.StepDatabase)

	startup.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	startup.CompleteStep(handlers.StepMigrations)

	startup.SetCurrentStep(handlers.StepContent)
	catalog, err := content.NewCatalog()
	if err != nil {
		return fmt.Errorf("failed to load passages: %w", err)
	}
	dict, err := dictionary.Load(cfg.Dictionary.Path)
	if err != nil {
		return fmt.Errorf("failed to load dictionary: %w", err)
	}
	logger.Info("content loaded", "passages", len(catalog.List()), "dictionary_entries", dict.Len())
	startup.CompleteStep(handlers.StepContent)

	// Repositories
	kvRepo := repository.NewKVRepository(db)
	passageRepo := repository.NewPassageRepository(db)
	resultRepo := repository.NewQuizResultRepository(db)

	// Vocabulary
	startup.SetCurrentStep(handlers.StepVocabulary)
	persister := vocab.NewPersister(kvRepo, logger, vocab.WithErrorHandler(func(error) {
		startup.RecordPersistFailure()
	}))
	store := vocab.NewStore(srs.NewScheduler(cfg.SRS.Intervals))
	vocabService := service.NewVocabularyService(store, persister, dict, logger)
	vocabService.Load(ctx)
	startup.CompleteStep(handlers.StepVocabulary)

	// Services
	var genClient genai.Client
	if cfg.GenAIEnabled() {
		genClient = genai.NewAnthropicClient(cfg.GenAI, logger)
		logger.Info("assistant enabled", "model", cfg.GenAI.Model)
	}
	readingService := service.NewReadingService(catalog, passageRepo, dict, vocabService, logger)
	quizService := service.NewQuizService(readingService, genClient, resultRepo, cfg.Quiz, logger)
	assistService := service.NewAssistService(genClient, logger)

	synth, err := audio.NewSynthesizer(ctx, cfg.Audio)
	if err != nil {
		return fmt.Errorf("failed to initialize speech synthesis: %w", err)
	}
	ttsService := audio.NewTTSService(cfg.Audio.Dir, cfg.Audio.Voice, synth, logger)
	if clips, err := ttsService.GetAllAudioFiles(); err != nil {
		logger.Warn("failed to read audio cache", "error", err)
	} else {
		logger.Info("audio cache", "clips", len(clips))
	}

	emailService, err := service.NewEmailService(ctx, cfg.Email, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}
	reminderService := service.NewReminderService(emailService, vocabService, cfg.Email.ToEmail, cfg.Email.Interval, logger)

	// Security
	csrf := security.NewCSRFGenerator(cfg.Auth.TokenSecret)
	limiter := security.NewRateLimiter(cfg.GenAI.RateLimit, rateLimitWindow)
	var tokens *security.TokenManager
	var authHandler *handlers.AuthHandler
	if cfg.AuthEnabled() {
		tokens = security.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.SessionDuration)
		authHandler = handlers.NewAuthHandler(cfg.Auth.PasswordHash, tokens)
		logger.Info("access gate enabled")
	}

	router := handlers.NewRouter(handlers.Dependencies{
		Reading:    readingService,
		Vocabulary: vocabService,
		Quiz:       quizService,
		Assist:     assistService,
		Audio:      ttsService,
		Auth:       authHandler,
		Middleware: handlers.NewMiddleware(tokens, csrf, limiter),
		Startup:    startup,
		StaticDir:  cfg.Server.StaticFilesPath,
		Logger:     logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		limiter.Run(gctx, rateLimitCleanup)
		return nil
	})

	g.Go(func() error {
		quizService.RunPruner(gctx, quizPruneInterval, quizIdleTimeout)
		return nil
	})

	if cfg.EmailEnabled() {
		g.Go(func() error {
			return reminderService.Run(gctx)
		})
	}

	startup.MarkReady()
	err = g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), persisterCloseWait)
	defer cancel()
	if cerr := persister.Close(closeCtx); cerr != nil {
		logger.Error("failed to flush vocabulary", "error", cerr)
		return errors.Join(err, fmt.Errorf("flush vocabulary: %w", cerr))
	}
	return err
}
