package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mdp/qrterminal/v3"
	"github.com/shvbsle/survey-sensei/internal/api"
	"github.com/shvbsle/survey-sensei/internal/genai"
	"github.com/shvbsle/survey-sensei/internal/lockfile"
	"github.com/shvbsle/survey-sensei/internal/notify"
	"github.com/shvbsle/survey-sensei/internal/store"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for survey-sensei state data
	DefaultStateDir = "/var/lib/survey-sensei"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "survey-sensei.db"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Guard the state directory against concurrent instances
	lock, err := acquireStateLock(flags)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}

	// Build module options
	storeOpts := buildStoreOptions(flags)
	genaiOpts := buildGenAIOptions(flags)
	notifyOpts := buildNotifyOptions(flags)
	apiOpts := buildAPIOptions(flags)

	// Render the survey URL as a QR code for phone access
	if err := maybeRenderQR(flags); err != nil {
		slog.Error("Failed to render QR code", "error", err)
		releaseLock(lock)
		os.Exit(1)
	}

	// Start the service
	slog.Info("Bootstrapping survey-sensei with configured modules")
	slog.Debug("Module options counts", "store", len(storeOpts), "genai", len(genaiOpts), "notify", len(notifyOpts), "api", len(apiOpts))
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "api_addr", *flags.apiAddr)
	if err := api.Run(storeOpts, genaiOpts, notifyOpts, apiOpts); err != nil {
		slog.Error("survey-sensei failed to run", "error", err)
		releaseLock(lock)
		os.Exit(1)
	}
	releaseLock(lock)
	slog.Info("survey-sensei exited successfully")
}

// Config holds environment configuration
type Config struct {
	DBDsn        string
	DatabaseURL  string
	StateDir     string
	OpenAIKey    string
	OpenAIModel  string
	APIAddr      string
	IdleTTL      string
	ReapSchedule string
	NotifyFrom   string
	NotifyTo     string
}

// Flags holds command line flag values
type Flags struct {
	qr           *bool
	qrOutput     *string
	stateDir     *string
	dbDSN        *string
	openaiKey    *string
	openaiModel  *string
	apiAddr      *string
	idleTTL      *string
	reapSchedule *string
	notifyFrom   *string
	notifyTo     *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DBDsn:        os.Getenv("SENSEI_DB_DSN"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		StateDir:     os.Getenv("SENSEI_STATE_DIR"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  os.Getenv("OPENAI_MODEL"),
		APIAddr:      os.Getenv("API_ADDR"),
		IdleTTL:      os.Getenv("FLOW_IDLE_TTL"),
		ReapSchedule: os.Getenv("REAP_SCHEDULE"),
		NotifyFrom:   os.Getenv("TWILIO_FROM_NUMBER"),
		NotifyTo:     os.Getenv("NOTIFY_TO_NUMBER"),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No SENSEI_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	} else {
		slog.Debug("SENSEI_STATE_DIR found in environment", "state_dir", config.StateDir)
	}

	// Fall back to the generic database URL if the specific DSN is not set
	if config.DBDsn == "" {
		config.DBDsn = config.DatabaseURL
		if config.DatabaseURL != "" {
			slog.Debug("Using DATABASE_URL as SENSEI_DB_DSN", "dsn_set", true)
		}
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DBDsn == "" {
		config.DBDsn = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DBDsn)
	}

	slog.Debug("environment variables loaded",
		"SENSEI_DB_DSN_SET", config.DBDsn != "",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"SENSEI_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"OPENAI_MODEL", config.OpenAIModel,
		"API_ADDR", config.APIAddr,
		"FLOW_IDLE_TTL", config.IdleTTL,
		"REAP_SCHEDULE", config.ReapSchedule,
		"TWILIO_FROM_NUMBER_SET", config.NotifyFrom != "",
		"NOTIFY_TO_NUMBER_SET", config.NotifyTo != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		qr:           flag.Bool("qr", false, "print the survey URL as a QR code on startup"),
		qrOutput:     flag.String("qr-output", "", "path to write the survey URL QR code instead of stdout"),
		stateDir:     flag.String("state-dir", config.StateDir, "state directory for survey-sensei data (overrides $SENSEI_STATE_DIR)"),
		dbDSN:        flag.String("db-dsn", config.DBDsn, "database DSN for the survey store (overrides $SENSEI_DB_DSN or $DATABASE_URL)"),
		openaiKey:    flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		openaiModel:  flag.String("openai-model", config.OpenAIModel, "OpenAI model for survey content (overrides $OPENAI_MODEL)"),
		apiAddr:      flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		idleTTL:      flag.String("idle-ttl", config.IdleTTL, "idle time before a flow is reaped, e.g. 30m (overrides $FLOW_IDLE_TTL)"),
		reapSchedule: flag.String("reap-schedule", config.ReapSchedule, "cron schedule for reaping idle flows (overrides $REAP_SCHEDULE)"),
		notifyFrom:   flag.String("notify-from", config.NotifyFrom, "SMS sender number for review notifications (overrides $TWILIO_FROM_NUMBER)"),
		notifyTo:     flag.String("notify-to", config.NotifyTo, "SMS recipient number for review notifications (overrides $NOTIFY_TO_NUMBER)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"qr", *flags.qr,
		"qrOutput", *flags.qrOutput,
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"openaiModel", *flags.openaiModel,
		"apiAddr", *flags.apiAddr,
		"idleTTL", *flags.idleTTL,
		"reapSchedule", *flags.reapSchedule,
		"notifyFromSet", *flags.notifyFrom != "",
		"notifyToSet", *flags.notifyTo != "")

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DBDsn && config.DBDsn == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "dsn_updated", true, "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags
}

// isFileDSN reports whether the DSN is a plain file path rather than a
// Postgres connection string.
func isFileDSN(dsn string) bool {
	return dsn != "" && store.DetectDSNType(dsn) != "postgres"
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if isFileDSN(*flags.dbDSN) {
		stateDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
			return err
		}
		slog.Debug("State directory created successfully", "state_dir", stateDir)
	}
	return nil
}

// acquireStateLock takes the single-instance lock when the store lives in a
// local file. Postgres handles its own concurrency, so no lock is needed.
func acquireStateLock(flags Flags) (*lockfile.Lock, error) {
	if !isFileDSN(*flags.dbDSN) {
		slog.Debug("No file-based database configured, skipping state lock")
		return nil, nil
	}
	return lockfile.AcquireLock(filepath.Dir(*flags.dbDSN))
}

// releaseLock releases the state lock if one was acquired
func releaseLock(lock *lockfile.Lock) {
	if lock == nil {
		return
	}
	if err := lock.Release(); err != nil {
		slog.Error("Failed to release state directory lock", "error", err)
	}
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		if store.DetectDSNType(*flags.dbDSN) == "postgres" {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql", "dsn_set", true)
		} else {
			slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
		}
		storeOpts = append(storeOpts, store.WithDSN(*flags.dbDSN))
	} else {
		slog.Debug("No database DSN provided, will use in-memory store")
	}
	return storeOpts
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.openaiModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.openaiModel))
	}
	return genaiOpts
}

// buildNotifyOptions constructs review notification options. Account
// credentials stay in the environment; only the phone numbers are flag-able.
func buildNotifyOptions(flags Flags) []notify.Option {
	var notifyOpts []notify.Option
	if *flags.notifyFrom != "" {
		notifyOpts = append(notifyOpts, notify.WithFromNumber(*flags.notifyFrom))
	}
	if *flags.notifyTo != "" {
		notifyOpts = append(notifyOpts, notify.WithToNumber(*flags.notifyTo))
	}
	return notifyOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.idleTTL != "" {
		ttl, err := time.ParseDuration(*flags.idleTTL)
		if err != nil {
			slog.Warn("Invalid idle TTL, using default", "idle_ttl", *flags.idleTTL, "error", err)
		} else {
			apiOpts = append(apiOpts, api.WithIdleTTL(ttl))
		}
	}
	if *flags.reapSchedule != "" {
		apiOpts = append(apiOpts, api.WithReapSchedule(*flags.reapSchedule))
	}
	return apiOpts
}

// surveyURL derives the address shoppers point their phones at.
func surveyURL(apiAddr string) string {
	addr := apiAddr
	if addr == "" {
		addr = api.DefaultAddr
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

// maybeRenderQR prints the survey URL as a terminal QR code, or writes it to
// the configured file.
func maybeRenderQR(flags Flags) error {
	if !*flags.qr && *flags.qrOutput == "" {
		return nil
	}
	url := surveyURL(*flags.apiAddr)

	writer := io.Writer(os.Stdout)
	if *flags.qrOutput != "" {
		f, err := os.Create(*flags.qrOutput)
		if err != nil {
			slog.Error("Failed to create QR file", "error", err, "qr_output", *flags.qrOutput)
			return fmt.Errorf("failed to create QR file: %w", err)
		}
		defer f.Close()
		writer = f
	}

	fmt.Fprintln(writer, "Scan to open survey-sensei:", url)
	qrterminal.GenerateHalfBlock(url, qrterminal.L, writer)
	slog.Info("Survey URL rendered as QR code", "url", url, "qr_output", *flags.qrOutput)
	return nil
}
