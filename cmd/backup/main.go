package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ieltsreader/internal/config"
	"ieltsreader/internal/database"
	"ieltsreader/internal/dictionary"
	"ieltsreader/internal/logging"
	"ieltsreader/internal/repository"
	"ieltsreader/internal/service"
	"ieltsreader/internal/srs"
	"ieltsreader/internal/vocab"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Replace saved words and quiz history instead of merging (WARNING: destructive)")
	importYes := importCmd.Bool("yes", false, "Skip the confirmation prompt for -clear")

	if len(os.Args) < 2 {
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

	db, err := database.Open(cfg.Database)
	if err != nil {
		fatal(logger, "failed to initialize database", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		fatal(logger, "failed to run migrations", err)
	}

	dict, err := dictionary.Load(cfg.Dictionary.Path)
	if err != nil {
		fatal(logger, "failed to load dictionary", err)
	}

	persister := vocab.NewPersister(repository.NewKVRepository(db), logger)
	vocabService := service.NewVocabularyService(vocab.NewStore(srs.NewScheduler(cfg.SRS.Intervals)), persister, dict, logger)
	vocabService.Load(ctx)

	backupService := service.NewBackupService(
		vocabService,
		repository.NewQuizResultRepository(db),
		repository.NewPassageRepository(db),
		logger,
	)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(ctx, logger, backupService, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(ctx, logger, backupService, persister, *importInput, *importClear, *importYes)

	default:
		printUsage()
		os.Exit(1)
	}

	closeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := persister.Close(closeCtx); err != nil {
		fatal(logger, "failed to save vocabulary", err)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

func handleExport(ctx context.Context, logger *slog.Logger, backupService *service.BackupService, outputPath string) {
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatal(logger, "failed to create output directory", err)
		}
	}

	logger.Info("exporting backup", "path", outputPath)
	if err := backupService.Export(ctx, outputPath); err != nil {
		fatal(logger, "export failed", err)
	}

	if info, err := os.Stat(outputPath); err == nil {
		logger.Info("export complete", "path", outputPath, "kb", float64(info.Size())/1024)
	}
}

func handleImport(ctx context.Context, logger *slog.Logger, backupService *service.BackupService, persister *vocab.Persister, inputPath string, clearData, skipConfirm bool) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		fatal(logger, "input file does not exist", err)
	}

	mode := service.ImportMerge
	if clearData {
		if !skipConfirm {
			fmt.Print("WARNING: This will replace all saved words and quiz history. Type 'yes' to confirm: ")
			var confirmation string
			fmt.Scanln(&confirmation)
			if confirmation != "yes" {
				logger.Info("import cancelled")
				return
			}
		}
		mode = service.ImportReplace
	}

	logger.Info("importing backup", "path", inputPath, "replace", clearData)
	if err := backupService.Import(ctx, inputPath, mode); err != nil {
		fatal(logger, "import failed", err)
	}
	if err := persister.Flush(ctx); err != nil {
		fatal(logger, "failed to save imported vocabulary", err)
	}
	logger.Info("import complete")
}

func printUsage() {
	fmt.Println("IELTS Reader Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export saved words, quiz history and imported passages")
	fmt.Println("  backup import [options]    Import a backup JSON file")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Replace existing words and history (WARNING: destructive)")
	fmt.Println("  -yes              Do not ask for confirmation with -clear")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./ieltsreader.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
