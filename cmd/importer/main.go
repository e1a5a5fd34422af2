package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"ieltsreader/internal/config"
	"ieltsreader/internal/content"
	"ieltsreader/internal/database"
	"ieltsreader/internal/genai"
	"ieltsreader/internal/logging"
	"ieltsreader/internal/models"
	"ieltsreader/internal/repository"
	"ieltsreader/internal/service"
)

func main() {
	urlFlag := flag.String("url", "", "Article URL to fetch and import")
	fileFlag := flag.String("file", "", "Passage JSON file to import")
	idFlag := flag.String("id", "", "Passage id (default: derived from the title)")
	titleFlag := flag.String("title", "", "Override the extracted title")
	quizFlag := flag.Bool("quiz", false, "Generate a vocabulary quiz with the configured GenAI backend")
	timeout := flag.Duration("timeout", 30*time.Second, "Fetch timeout for -url")
	flag.Usage = printUsage
	flag.Parse()

	if (*urlFlag == "") == (*fileFlag == "") {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log)
	ctx := context.Background()

	var passage models.Passage
	if *urlFlag != "" {
		fetchCtx, cancel := context.WithTimeout(ctx, *timeout)
		passage, err = content.FetchArticle(fetchCtx, &http.Client{Timeout: *timeout}, *urlFlag)
		cancel()
		if err != nil {
			fatal(logger, "failed to extract article", err)
		}
		logger.Info("article extracted", "title", passage.Title, "paragraphs", len(passage.Paragraphs))
	} else {
		passage, err = readPassageFile(*fileFlag)
		if err != nil {
			fatal(logger, "failed to read passage file", err)
		}
	}

	if *idFlag != "" {
		passage.ID = *idFlag
	}
	if *titleFlag != "" {
		passage.Title = *titleFlag
	}

	if *quizFlag && len(passage.Quiz) == 0 {
		if !cfg.GenAIEnabled() {
			fatal(logger, "quiz generation needs GENAI_API_KEY", service.ErrAssistDisabled)
		}
		client := genai.NewAnthropicClient(cfg.GenAI, logger)
		genCtx, cancel := context.WithTimeout(ctx, cfg.GenAI.Timeout)
		items, err := client.GenerateQuiz(genCtx, service.PassageText(passage))
		cancel()
		if err != nil {
			fatal(logger, "quiz generation failed", err)
		}
		passage.Quiz = items
		logger.Info("quiz generated", "items", len(items))
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		fatal(logger, "failed to initialize database", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		fatal(logger, "failed to run migrations", err)
	}

	catalog, err := content.NewCatalog()
	if err != nil {
		fatal(logger, "failed to load built-in passages", err)
	}

	reading := service.NewReadingService(catalog, repository.NewPassageRepository(db), nil, nil, logger)
	saved, err := reading.ImportPassage(ctx, passage)
	if err != nil {
		fatal(logger, "import failed", err)
	}

	fmt.Printf("Imported passage %q as %s (%d paragraphs, %d quiz items)\n",
		saved.Title, saved.ID, len(saved.Paragraphs), len(saved.Quiz))
}

func readPassageFile(path string) (models.Passage, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Passage{}, err
	}
	defer f.Close()

	var p models.Passage
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return models.Passage{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if strings.TrimSpace(p.Title) == "" {
		return models.Passage{}, fmt.Errorf("%s: title is required", path)
	}
	return p, nil
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println("IELTS Reader Passage Importer")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  importer -url <article-url> [options]")
	fmt.Println("  importer -file <passage.json> [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -id <id>          Passage id (default: derived from the title)")
	fmt.Println("  -title <title>    Override the extracted title")
	fmt.Println("  -quiz             Generate a vocabulary quiz (requires GENAI_API_KEY)")
	fmt.Println("  -timeout <dur>    Fetch timeout for -url (default: 30s)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./ieltsreader.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
