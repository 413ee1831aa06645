package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// AppConfig 汇总运行服务所需的基础配置。
// NotionToken 是唯一的机密项，只在启动时读取一次，
// 之后仅由 notion.Client 持有。
type AppConfig struct {
	ListenAddr         string
	Port               string
	GinMode            string
	DatabasePath       string
	SessionSecret      string
	StaticDir          string
	NotionToken        string
	HabitDatabaseID    string
	EnergyDatabaseID   string
	EnergyDataSourceID string
	DefaultUser        string
	WebhookSecret      string
	DeployScript       string
}

// ErrMissingNotionToken 表示启动环境中没有提供凭证，属致命配置错误
var ErrMissingNotionToken = errors.New("NOTION_TOKEN is not set")

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
// 凭证缺失时直接报错，由 main 终止进程，而不是留到请求期再失败。
func Load() (AppConfig, error) {
	token := strings.TrimSpace(os.Getenv("NOTION_TOKEN"))
	if token == "" {
		return AppConfig{}, ErrMissingNotionToken
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3000"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "habbits.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "habbits-dev-secret"
	}

	staticDir := strings.TrimSpace(os.Getenv("STATIC_DIR"))
	if staticDir == "" {
		staticDir = "web/static"
	}

	habitDatabaseID := strings.TrimSpace(os.Getenv("HABIT_DATABASE_ID"))
	if habitDatabaseID == "" {
		habitDatabaseID = "2e5911c2c35f8043b1d1ee2658135eb3"
	}

	defaultUser := strings.TrimSpace(os.Getenv("DEFAULT_USER"))
	if defaultUser == "" {
		defaultUser = "gleb"
	}

	deployScript := strings.TrimSpace(os.Getenv("DEPLOY_SCRIPT"))
	if deployScript == "" {
		deployScript = "/opt/habbits/deploy.sh"
	}

	return AppConfig{
		ListenAddr:         listenAddr,
		Port:               port,
		GinMode:            ginMode,
		DatabasePath:       databasePath,
		SessionSecret:      sessionSecret,
		StaticDir:          staticDir,
		NotionToken:        token,
		HabitDatabaseID:    habitDatabaseID,
		EnergyDatabaseID:   strings.TrimSpace(os.Getenv("ENERGY_DATABASE_ID")),
		EnergyDataSourceID: strings.TrimSpace(os.Getenv("ENERGY_DATA_SOURCE_ID")),
		DefaultUser:        defaultUser,
		WebhookSecret:      strings.TrimSpace(os.Getenv("WEBHOOK_SECRET")),
		DeployScript:       deployScript,
	}, nil
}
