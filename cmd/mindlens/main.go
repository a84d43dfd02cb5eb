// ABOUTME: Entry point for the mindlens server
// ABOUTME: Serves the analysis UI and JSON API over a local SQLite database

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/mindlens/mindlens/internal/analyze"
	"github.com/mindlens/mindlens/internal/auth"
	"github.com/mindlens/mindlens/internal/classify"
	"github.com/mindlens/mindlens/internal/config"
	"github.com/mindlens/mindlens/internal/report"
	"github.com/mindlens/mindlens/internal/resources"
	"github.com/mindlens/mindlens/internal/store"
	"github.com/mindlens/mindlens/internal/translate"
	"github.com/mindlens/mindlens/internal/web"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
           _           _ _
 _ __ ___ (_)_ __   __| | | ___ _ __  ___
| '_ ' _ \| | '_ \ / _' | |/ _ \ '_ \/ __|
| | | | | | | | | | (_| | |  __/ | | \__ \
|_| |_| |_|_|_| |_|\__,_|_|\___|_| |_|___/
`

// getConfigPath returns the path to the mindlens config file.
// Priority: MINDLENS_CONFIG env var > XDG_CONFIG_HOME/mindlens/mindlens.yaml > ~/.config/mindlens/mindlens.yaml
func getConfigPath() string {
	if envPath := os.Getenv("MINDLENS_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "mindlens.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "mindlens", "mindlens.yaml")
}

// getDataPath returns the path to the mindlens data directory.
// Priority: XDG_DATA_HOME/mindlens > ~/.local/share/mindlens
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "mindlens")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: mindlens <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                              Start the server")
		fmt.Println("  init                               Create a new config file interactively")
		fmt.Println("  bootstrap-admin [--username NAME]  Provision the initial admin account")
		fmt.Println("  health                             Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "bootstrap-admin":
		err = runBootstrapAdmin(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	// Startup info
	green := color.New(color.FgGreen)

	green.Print("    ▶ ")
	fmt.Printf("Config:     %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:       %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:   %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	if cfg.Translator.Enabled {
		fmt.Printf("Translator: %s\n", cfg.Translator.BaseURL)
	} else {
		fmt.Printf("Translator: disabled\n")
	}
	green.Print("    ▶ ")
	fmt.Printf("Classifier: %s\n", cfg.Classifier.BaseURL)
	fmt.Println()

	logger.Info("starting mindlens",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	// Open the store
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	// Provision the default admin account if none exists yet
	authn := auth.New(st)
	created, err := authn.BootstrapAdmin(ctx, cfg.Auth.BootstrapAdminUsername, cfg.Auth.BootstrapAdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrapping admin account: %w", err)
	}
	if created {
		logger.Info("created default admin account",
			"username", cfg.Auth.BootstrapAdminUsername,
		)
	}

	// External collaborators. Both degrade gracefully at request time,
	// so failures here never block startup.
	var translator translate.Translator = translate.Disabled{}
	if cfg.Translator.Enabled {
		translator = translate.NewClient(cfg.Translator.BaseURL, cfg.Translator.Target, cfg.Translator.Timeout)
	}
	classifier := classify.NewClient(cfg.Classifier.BaseURL, cfg.Classifier.Model, cfg.Classifier.Token, cfg.Classifier.Timeout)

	table, err := resources.Load()
	if err != nil {
		return fmt.Errorf("loading resource table: %w", err)
	}

	analyzer := analyze.New(st, translator, classifier)
	reporter := report.New(st)
	tokens := auth.NewTokenIssuer([]byte(cfg.Auth.JWTSecret))

	server := web.New(st, authn, tokens, analyzer, reporter, table, web.Config{
		SessionDuration:      cfg.Auth.SessionDuration,
		TokenDuration:        cfg.Auth.TokenDuration,
		DefaultRetentionDays: cfg.Retention.DefaultDays,
	})

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","version":%q}`, version)
	})

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: mux,
	}

	// Sweep expired sessions in the background
	go sweepSessions(ctx, st, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	return nil
}

// sweepSessions deletes expired sessions hourly until ctx is cancelled.
func sweepSessions(ctx context.Context, st store.Store, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := st.DeleteExpiredSessions(ctx); err != nil {
				logger.Error("sweeping expired sessions failed", "error", err)
			}
		}
	}
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

// runBootstrapAdmin provisions the initial admin account:
// 1. Creates a config file with a random JWT secret (if not exists)
// 2. Creates the database and the admin account
//
// This is a one-command setup: mindlens bootstrap-admin --username admin
func runBootstrapAdmin(ctx context.Context) error {
	// Parse args with explicit error handling
	// Supports both "--flag value" and "--flag=value" formats
	var username, password string
	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--username" || arg == "-u":
			if i+1 >= len(args) {
				return fmt.Errorf("--username requires a value")
			}
			username = args[i+1]
			i++
		case strings.HasPrefix(arg, "--username="):
			username = strings.TrimPrefix(arg, "--username=")
		case arg == "--password" || arg == "-p":
			if i+1 >= len(args) {
				return fmt.Errorf("--password requires a value")
			}
			password = args[i+1]
			i++
		case strings.HasPrefix(arg, "--password="):
			password = strings.TrimPrefix(arg, "--password=")
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			return fmt.Errorf("unexpected argument: %s", arg)
		}
	}

	if username == "" {
		username = config.DefaultAdminUsername
	}
	if password == "" {
		password = config.DefaultAdminPassword
	}

	configPath := getConfigPath()
	dataPath := getDataPath()
	dbPath := filepath.Join(dataPath, "mindlens.db")

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	// Check if config exists, create if not
	var cfg *config.Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Generate random JWT secret
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			return fmt.Errorf("generating JWT secret: %w", err)
		}
		jwtSecret := base64.StdEncoding.EncodeToString(secretBytes)

		// Create config directory
		configDir := filepath.Dir(configPath)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		// Create data directory
		if err := os.MkdirAll(dataPath, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}

		// Write config file
		configContent := fmt.Sprintf(`# mindlens configuration
# Generated by mindlens bootstrap-admin

server:
  http_addr: "localhost:8080"

database:
  path: "%s"

auth:
  jwt_secret: "%s"

translator:
  enabled: false

classifier:
  base_url: "https://api-inference.huggingface.co"
  model: "facebook/bart-large-mnli"
  token: "${HF_API_TOKEN}"

logging:
  level: "info"
  format: "text"
`, dbPath, jwtSecret)

		if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}

		green.Printf("  ✓ Created config: %s\n", configPath)

		// Load the config we just created
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	} else {
		// Config exists, load it
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		cyan.Printf("  Using existing config: %s\n", configPath)
	}

	// Open the store directly
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	green.Printf("  ✓ Database: %s\n", cfg.Database.Path)

	authn := auth.New(st)
	created, err := authn.BootstrapAdmin(ctx, username, password)
	if err != nil {
		return fmt.Errorf("creating admin account: %w", err)
	}
	if !created {
		return fmt.Errorf("bootstrap already complete: an admin account exists")
	}

	green.Printf("  ✓ Created admin account: %s\n", username)

	fmt.Println()
	green.Println("  Bootstrap complete!")
	fmt.Println()
	cyan.Println("  Admin Account")
	cyan.Println("  -------------")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()

	yellow.Println("  Ready to go:")
	fmt.Println("    mindlens serve    # start the server")
	fmt.Println("    Change the admin password after first login.")
	fmt.Println()

	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("mindlens configuration setup")
	fmt.Println("============================")
	fmt.Println()

	// Default paths
	defaultConfigPath := getConfigPath()
	defaultDataPath := getDataPath()
	defaultDbPath := filepath.Join(defaultDataPath, "mindlens.db")

	// Output filename
	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Server configuration
	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:8080")

	// Database
	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", defaultDbPath)

	// Auth
	fmt.Println("\n--- Auth Configuration ---")
	jwtSecret := prompt(reader, "JWT secret (leave empty to generate)", "")
	if jwtSecret == "" {
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			return fmt.Errorf("generating JWT secret: %w", err)
		}
		jwtSecret = base64.StdEncoding.EncodeToString(secretBytes)
	}

	// Translator
	fmt.Println("\n--- Translator Configuration ---")
	enableTranslator := prompt(reader, "Enable translation?", "no")
	translatorEnabled := strings.ToLower(enableTranslator) == "yes" || strings.ToLower(enableTranslator) == "y"

	var translatorURL string
	if translatorEnabled {
		translatorURL = prompt(reader, "Translation service URL", "http://localhost:5000")
	}

	// Classifier
	fmt.Println("\n--- Classifier Configuration ---")
	classifierURL := prompt(reader, "Classifier base URL", "https://api-inference.huggingface.co")
	classifierModel := prompt(reader, "Classifier model", "facebook/bart-large-mnli")
	classifierToken := prompt(reader, "Classifier API token (leave empty to read ${HF_API_TOKEN})", "")

	// Logging
	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	// Generate config
	var cfg strings.Builder
	cfg.WriteString("# mindlens configuration\n")
	cfg.WriteString("# Generated by mindlens init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: \"%s\"\n", httpAddr))
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("auth:\n")
	cfg.WriteString(fmt.Sprintf("  jwt_secret: \"%s\"\n", jwtSecret))
	cfg.WriteString("\n")

	cfg.WriteString("translator:\n")
	cfg.WriteString(fmt.Sprintf("  enabled: %t\n", translatorEnabled))
	if translatorEnabled {
		cfg.WriteString(fmt.Sprintf("  base_url: \"%s\"\n", translatorURL))
		cfg.WriteString("  target: \"en\"\n")
	}
	cfg.WriteString("\n")

	cfg.WriteString("classifier:\n")
	cfg.WriteString(fmt.Sprintf("  base_url: \"%s\"\n", classifierURL))
	cfg.WriteString(fmt.Sprintf("  model: \"%s\"\n", classifierModel))
	if classifierToken != "" {
		cfg.WriteString(fmt.Sprintf("  token: \"%s\"\n", classifierToken))
	} else {
		cfg.WriteString("  token: \"${HF_API_TOKEN}\"\n")
	}
	cfg.WriteString("\n")

	cfg.WriteString("retention:\n")
	cfg.WriteString(fmt.Sprintf("  default_days: %d\n", config.DefaultRetentionDays))
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	// Ensure config directory exists
	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Write config file
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	// Ensure data directory exists
	dataDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  mindlens serve\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
