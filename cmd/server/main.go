package main

import (
	"log"

	"github.com/habbits/internal/config"
	"github.com/habbits/internal/db"
	"github.com/habbits/internal/handler"
	"github.com/habbits/internal/router"
	"github.com/joho/godotenv"
)

func main() {
	// .env 不存在是正常情况（比如生产环境直接注入环境变量）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// 初始化本地流水数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	api := handler.NewAPI(cfg, db.DB)

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(cfg, api)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
