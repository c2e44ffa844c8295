package main

import (
	"context"

	"github.com/amankumarsingh77/go-webtoon-crawler/api/handlers"
	"github.com/amankumarsingh77/go-webtoon-crawler/config"
	"github.com/amankumarsingh77/go-webtoon-crawler/db"
	"github.com/amankumarsingh77/go-webtoon-crawler/db/repository"
	"github.com/amankumarsingh77/go-webtoon-crawler/pkg/logging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	con, err := db.NewMongoConn(ctx, cfg.MongoURI, cfg.DBName, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer con.Disconnect(ctx)

	repo := repository.NewMongoRepo(con.Database(cfg.DBName).Collection(db.WebtoonCollection))
	h := handlers.NewHandler(repo)

	r := gin.Default()
	h.Register(r)

	logger.Info("api listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("api server stopped", zap.Error(err))
	}
}
