package main

import (
	"github.com/udistrital/marketplace_mid/internal/middlewares"
	_ "github.com/udistrital/marketplace_mid/routers"
	"github.com/udistrital/marketplace_mid/services"

	"github.com/beego/beego/v2/core/logs"
	beego "github.com/beego/beego/v2/server/web"
	cors "github.com/beego/beego/v2/server/web/filter/cors"
)

var logLevels = map[string]int{
	"debug":    logs.LevelDebug,
	"info":     logs.LevelInformational,
	"warn":     logs.LevelWarning,
	"error":    logs.LevelError,
	"critical": logs.LevelCritical,
}

func main() {
	cfg := services.GetConfig()

	_ = logs.SetLogger(logs.AdapterConsole)
	if level, ok := logLevels[cfg.LogLevel]; ok {
		logs.SetLevel(level)
	}
	logs.EnableFuncCallDepth(true)

	beego.InsertFilter("*", beego.BeforeRouter, cors.Allow(&cors.Options{
		AllowOrigins:     cfg.CORSOrigins, //orígenes permitidos
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Requested-With", "X-Request-Id", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-Id", "Retry-After"},
		AllowCredentials: true,
	}))
	middlewares.UseAuth()
	middlewares.UseRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)

	if beego.BConfig.RunMode == "dev" {
		beego.BConfig.WebConfig.DirectoryIndex = true
		beego.BConfig.WebConfig.StaticDir["/swagger"] = "swagger"
	}
	beego.BConfig.CopyRequestBody = true
	beego.Run()
}
