package handler

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/habbits/internal/config"
	"github.com/habbits/internal/notion"
	"github.com/habbits/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	cfg         config.AppConfig
	client      *notion.Client
	users       *service.UserDirectory
	states      *service.StateStore
	records     *service.RecordService
	submissions *service.SubmissionService
	stats       *service.StatsService
}

const sessionUserKey = "user"

// NewAPI constructs a handler set with shared services.
func NewAPI(cfg config.AppConfig, gdb *gorm.DB) *API {
	client := notion.NewClient(cfg.NotionToken)
	resolver := service.NewDataSourceResolver(client)
	// 配置里预先给出的能量 data source 直接种进缓存
	resolver.Seed(cfg.EnergyDatabaseID, cfg.EnergyDataSourceID)
	schemas := service.NewSchemaInferencer(client)

	users := service.NewUserDirectory(cfg)
	states := service.NewStateStore(users)
	records := service.NewRecordService(client, resolver, schemas)

	return &API{
		cfg:         cfg,
		client:      client,
		users:       users,
		states:      states,
		records:     records,
		submissions: service.NewSubmissionService(records, users, states, gdb),
		stats:       service.NewStatsService(records, users),
	}
}

// Client exposes the gateway client for the proxy endpoint.
func (a *API) Client() *notion.Client {
	return a.client
}

// currentUser 从会话解析当前用户标识，未选择时回落到默认用户
func (a *API) currentUser(c *gin.Context) string {
	session := sessions.Default(c)
	if tag, ok := session.Get(sessionUserKey).(string); ok && tag != "" {
		return a.users.Lookup(tag).Tag
	}
	return a.users.DefaultTag()
}
