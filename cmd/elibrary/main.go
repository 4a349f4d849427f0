package main

import (
	stdLog "log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Astemirdum/elibrary-service/elibrary/app"
	"github.com/Astemirdum/elibrary-service/elibrary/config"
)

// @title        elibrary API
// @version      1.0
// @description  Library catalog, member accounts and circulation.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	if err := godotenv.Load(); err != nil {
		stdLog.Println("load envs from .env ", zap.Error(err))
	}
	cfg := config.NewConfig(
		config.WithLogLevel(zapcore.InfoLevel),
		config.WithWriteTimeout(time.Minute),
		config.WithSweepInterval(time.Hour),
	)

	app.Run(cfg)
}
