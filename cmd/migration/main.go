package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/riskibarqy/match-ledger/internal/platform/dburl"
	"github.com/riskibarqy/match-ledger/internal/platform/logging"
)

var defaultMigrationDirs = []string{"./db/migrations", "/app/db/migrations"}

type command struct {
	usage string
	// offline commands never open the database.
	offline bool
	run     func(env runEnv, args []string) error
}

type runEnv struct {
	logger *logging.Logger
	dir    string
	m      *migrate.Migrate
}

var commands = map[string]command{
	"up":      {usage: "up", run: runUp},
	"down":    {usage: "down [steps]", run: runDown},
	"version": {usage: "version", run: runVersion},
	"force":   {usage: "force <version>", run: runForce},
	"goto":    {usage: "goto <version>", run: runGoto},
	"create":  {usage: "create <name>", offline: true, run: runCreate},
}

func main() {
	envErr := godotenv.Load()

	logger := logging.NewJSON(logging.ParseLevel(os.Getenv("APP_LOG_LEVEL")))
	defer func() { _ = logger.Sync() }()
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn("read .env file", "error", envErr)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}
	name := strings.ToLower(strings.TrimSpace(os.Args[1]))
	if name == "migrate" {
		name = "goto"
	}
	cmd, ok := commands[name]
	if !ok {
		printUsage()
		os.Exit(2)
	}

	if err := execute(logger, cmd, os.Args[2:]); err != nil {
		logger.Error("migration failed", "command", name, "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func execute(logger *logging.Logger, cmd command, args []string) error {
	dir, err := resolveMigrationsDir(os.Getenv("MIGRATIONS_DIR"))
	if err != nil {
		return fmt.Errorf("resolve migrations dir: %w", err)
	}
	env := runEnv{logger: logger, dir: dir}
	if cmd.offline {
		return cmd.run(env, args)
	}

	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	dbURL = dburl.Normalize(dbURL, envBool("DB_DISABLE_PREPARED_BINARY_RESULT"))

	sourceURL := "file://" + filepath.ToSlash(dir)
	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer closeMigrator(logger, m)

	env.m = m
	env.logger = logger.With("source", sourceURL, "db", dburl.Redact(dbURL))
	return cmd.run(env, args)
}

func runUp(env runEnv, _ []string) error {
	if err := ignoreNoChange(env.logger, env.m.Up()); err != nil {
		return err
	}
	env.logger.Info("migrations applied")
	return nil
}

func runDown(env runEnv, args []string) error {
	steps := 1
	if len(args) > 0 {
		n, err := parsePositive(args[0], "down steps")
		if err != nil {
			return err
		}
		steps = n
	}
	if err := ignoreNoChange(env.logger, env.m.Steps(-steps)); err != nil {
		return err
	}
	env.logger.Info("migrations rolled back", "steps", steps)
	return nil
}

func runVersion(env runEnv, _ []string) error {
	version, dirty, err := env.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		fmt.Println("version: none")
		fmt.Println("dirty: false")
		return nil
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	}
	fmt.Printf("version: %d\n", version)
	fmt.Printf("dirty: %t\n", dirty)
	return nil
}

func runForce(env runEnv, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("force requires a version argument")
	}
	version, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || version < 0 {
		return fmt.Errorf("invalid version %q", args[0])
	}
	if err := env.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	env.logger.Info("migration version forced", "version", version)
	return nil
}

func runGoto(env runEnv, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("goto requires a target version argument")
	}
	target, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid target version %q: %w", args[0], err)
	}
	if err := ignoreNoChange(env.logger, env.m.Migrate(uint(target))); err != nil {
		return err
	}
	env.logger.Info("migrated", "version", target)
	return nil
}

var migrationNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// runCreate writes an empty up/down pair named after the current unix time,
// matching the existing files in db/migrations.
func runCreate(env runEnv, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("create requires a migration name")
	}
	paths, err := createMigration(env.dir, args[0], time.Now())
	if err != nil {
		return err
	}
	env.logger.Info("migration created", "up", paths[0], "down", paths[1])
	return nil
}

func createMigration(dir, name string, now time.Time) ([2]string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !migrationNamePattern.MatchString(name) {
		return [2]string{}, fmt.Errorf("migration name %q must be snake_case", name)
	}
	base := filepath.Join(dir, fmt.Sprintf("%d_%s", now.Unix(), name))
	paths := [2]string{base + ".up.sql", base + ".down.sql"}
	for _, p := range paths {
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			return [2]string{}, fmt.Errorf("create %s: %w", p, err)
		}
		if err := f.Close(); err != nil {
			return [2]string{}, fmt.Errorf("close %s: %w", p, err)
		}
	}
	return paths, nil
}

func parsePositive(raw, what string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, raw, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be > 0", what)
	}
	return n, nil
}

func ignoreNoChange(logger *logging.Logger, err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes")
		return nil
	}
	return err
}

func closeMigrator(logger *logging.Logger, m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		logger.Warn("close migrator", "error", err)
	}
}

// resolveMigrationsDir returns the first existing directory among override
// and the defaults.
func resolveMigrationsDir(override string) (string, error) {
	candidates := append([]string{strings.TrimSpace(override)}, defaultMigrationDirs...)
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}
	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, %s)", strings.Join(defaultMigrationDirs, ", "))
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <command> [args]\n", name)
	for _, key := range []string{"up", "down", "version", "force", "goto", "create"} {
		fmt.Fprintf(os.Stderr, "  %s %s\n", name, commands[key].usage)
	}
}
