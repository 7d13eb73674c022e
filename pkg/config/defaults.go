// Package config provides centralized default values for the gate-pass service
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

// getEnvSecret reads an env var without echoing its value to the log.
func getEnvSecret(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Database
	DBDriver        string
	DBPath          string
	LibSQLURL       string
	LibSQLAuthToken string
	DBMaxOpenConns  int
	DBMaxIdleConns  int

	// Email
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string

	// Decision links and pass rendering
	HostDecisionBaseURL string
	FrontendBaseURL     string
	ChromePath          string
	RenderNavTimeout    time.Duration
	RenderReadyTimeout  time.Duration

	// Visitor lifecycle
	VisitorCodePrefix   string
	RequestExpiryWindow time.Duration
	TokenExpiryWindow   time.Duration
	ExpirySweepInterval time.Duration
	ArtifactsDir        string

	// Admin console
	AdminUser         string
	AdminPassword     string
	AdminPasswordHash string
	JWTSecret         string
	AdminTokenTTL     time.Duration
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("GATEPASS_PORT", "5000")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second)

	// Database
	DBDriver = getEnvString("DB_DRIVER", "sqlite3")
	DBPath = getEnvString("DB_PATH", "gatepass.db")
	LibSQLURL = getEnvSecret("LIBSQL_URL", "")
	LibSQLAuthToken = getEnvSecret("LIBSQL_AUTH_TOKEN", "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)

	// Email
	ResendAPIKey = getEnvSecret("RESEND_API_KEY", "")
	EmailFrom = getEnvString("EMAIL_FROM", "noreply@logiclens.example")
	EmailFromName = getEnvString("EMAIL_FROM_NAME", "LogicLens Visitor Desk")

	// Decision links and pass rendering
	HostDecisionBaseURL = getEnvString("HOST_DECISION_BASE_URL", "http://localhost:5000/api")
	FrontendBaseURL = getEnvString("FRONTEND_BASE_URL", "")
	ChromePath = getEnvString("CHROME_PATH", "")
	RenderNavTimeout = getEnvDuration("RENDER_NAV_TIMEOUT", 30*time.Second)
	RenderReadyTimeout = getEnvDuration("RENDER_READY_TIMEOUT", 15*time.Second)

	// Visitor lifecycle
	VisitorCodePrefix = getEnvString("VISITOR_CODE_PREFIX", "LOGIC")
	RequestExpiryWindow = getEnvDuration("REQUEST_EXPIRY_WINDOW", 10*time.Minute)
	TokenExpiryWindow = getEnvDuration("TOKEN_EXPIRY_WINDOW", 10*time.Minute)
	ExpirySweepInterval = getEnvDuration("EXPIRY_SWEEP_INTERVAL", time.Minute)
	ArtifactsDir = getEnvString("ARTIFACTS_DIR", "temp")

	// Admin console
	AdminUser = getEnvString("ADMIN_USER", "admin")
	AdminPassword = getEnvSecret("ADMIN_PASSWORD", "")
	AdminPasswordHash = getEnvSecret("ADMIN_PASSWORD_HASH", "")
	JWTSecret = getEnvSecret("JWT_SECRET", "")
	AdminTokenTTL = getEnvDuration("ADMIN_TOKEN_TTL", 12*time.Hour)
}
