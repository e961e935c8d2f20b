package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

var (
	Addr = ":8080"

	// Store settings
	StoreDriver = "file"
	StoreDSN    = "./content"

	// CMS config file (optional)
	CMSConfigPath = ""

	// Editing settings
	Locales            = []string{"en", "ar"}
	SessionIdleTimeout = 30 * time.Minute

	// Media settings
	MediaDir        = "./media"
	MediaPublicPath = "/media"

	// Notifications
	RedisAddr    = ""
	RedisChannel = "sitecms:sections"

	// Auth settings
	SessionSecret = ""
	AuthDisabled  = false

	// Logging
	LogLevel = "info"

	// Git settings
	GitUserEmail = "bot@sitecms.local"
	GitUserName  = "Site CMS Bot"
	GitBranch    = "main"
	GitRemote    = "origin"
)

var OauthConf *oauth2.Config

func Init() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found or error loading it.")
	}

	// Helper to get env with default
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	appURL := GetAppURL()
	redirectURL := getEnv("GITHUB_REDIRECT_URL", appURL+"/auth/callback")

	Addr = getEnv("ADDR", ":8080")

	StoreDriver = getEnv("STORE_DRIVER", "file")
	StoreDSN = getEnv("STORE_DSN", "./content")
	CMSConfigPath = getEnv("CMS_CONFIG", "")

	Locales = []string{"en", "ar"}
	if l := os.Getenv("LOCALES"); l != "" {
		Locales = splitList(l)
	}
	SessionIdleTimeout = 30 * time.Minute
	if d := os.Getenv("SESSION_IDLE_TIMEOUT"); d != "" {
		if val, err := time.ParseDuration(d); err == nil {
			SessionIdleTimeout = val
		}
	}

	MediaDir = getEnv("MEDIA_DIR", "./media")
	MediaPublicPath = getEnv("MEDIA_PUBLIC_PATH", "/media")

	RedisAddr = getEnv("REDIS_ADDR", "")
	RedisChannel = getEnv("REDIS_CHANNEL", "sitecms:sections")

	SessionSecret = getEnv("SESSION_SECRET", "")
	AuthDisabled = false
	if v, err := strconv.ParseBool(getEnv("AUTH_DISABLED", "false")); err == nil {
		AuthDisabled = v
	}

	LogLevel = getEnv("LOG_LEVEL", "info")

	GitUserEmail = getEnv("GIT_USER_EMAIL", "bot@sitecms.local")
	GitUserName = getEnv("GIT_USER_NAME", "Site CMS Bot")
	GitBranch = getEnv("GIT_BRANCH", "main")
	GitRemote = getEnv("GIT_REMOTE", "origin")

	OauthConf = &oauth2.Config{
		ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		Scopes:       []string{"repo"},
		Endpoint:     github.Endpoint,
		RedirectURL:  redirectURL,
	}
}

func GetAppURL() string {
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:8080"
	}
	return appURL
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
