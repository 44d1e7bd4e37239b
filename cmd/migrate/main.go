package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/heraerp/platform/internal/infrastructure/config"
	"github.com/heraerp/platform/internal/infrastructure/logger"
	"github.com/heraerp/platform/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	var (
		migrationsPath string
		logLevel       string
	)

	flag.StringVar(&migrationsPath, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	m, closeDB := openMigrator(cfg, migrationsPath, log)
	defer closeDB()
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Error closing migrator", zap.Error(err))
		}
	}()

	log.Info("Migration CLI started", zap.String("command", command))

	switch command {
	case "up":
		if err := m.Up(); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}

	case "down":
		if err := m.Down(); err != nil {
			log.Fatal("Migration down failed", zap.Error(err))
		}

	case "steps":
		if len(args) < 2 {
			log.Fatal("Step count required. Usage: migrate steps <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n == 0 {
			log.Fatal("Invalid step count", zap.String("value", args[1]))
		}
		if err := m.Steps(n); err != nil {
			log.Fatal("Migration steps failed", zap.Error(err))
		}

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal("Failed to get version", zap.Error(err))
		}
		if version == 0 {
			log.Info("No migrations applied")
			return
		}
		log.Info("Current migration version",
			zap.Uint("version", version),
			zap.Bool("dirty", dirty),
		)

	case "force":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		log.Warn("Forcing migration version, the schema is not changed")
		if err := m.Force(version); err != nil {
			log.Fatal("Force version failed", zap.Error(err))
		}

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

// openMigrator uses the embedded migrations unless a directory was given
func openMigrator(cfg *config.Config, migrationsPath string, log *zap.Logger) (*migration.Migrator, func()) {
	if migrationsPath != "" {
		absPath, err := filepath.Abs(migrationsPath)
		if err != nil {
			log.Fatal("Failed to get absolute path", zap.Error(err))
		}
		m, err := migration.NewFromPath(cfg.Database.DSN(), absPath, log)
		if err != nil {
			log.Fatal("Failed to create migrator", zap.Error(err))
		}
		log.Info("Using migrations directory", zap.String("path", absPath))
		return m, func() {}
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}
	m, err := migration.New(db, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	return m, func() { _ = db.Close() }
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: migrate [flags] <command> [args]

Commands:
  up            Apply all pending migrations
  down          Roll back all migrations
  steps <n>     Apply n migrations, or roll back when n is negative
  version       Print the current schema version
  force <v>     Set the schema version without running migrations

Flags:
  -path <dir>       Read migrations from a directory
  -log-level <lvl>  Log level (debug, info, warn, error)
`)
}
