package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campus-events/config"
	"campus-events/db"
	"campus-events/middlewares"
	"campus-events/models"
	"campus-events/routes"
	"campus-events/utils"
)

func init() {
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC1123Z,
		}),
	))
}

func main() {
	cfg := config.Load()

	var (
		userRepo     models.UserRepository
		regRepo      models.RegistrationRepository
		eventRepo    models.EventRepository
		feedbackRepo models.FeedbackRepository
	)

	if cfg.DevMemoryStore {
		slog.Warn("running with the in-memory store; nothing will be persisted")
		store := models.NewMemoryStore()
		userRepo = store.Users()
		regRepo = store.Registrations()
		eventRepo = store.Events()
		feedbackRepo = store.Feedback()
	} else {
		// Postgres: identity, registrations, feedback.
		sqldb, err := db.Open(cfg.PostgresDSN)
		if err != nil {
			slog.Error("can't connect to postgres", "error", err)
			os.Exit(1)
		}
		defer sqldb.Close()
		if err := db.CreateTables(sqldb); err != nil {
			slog.Error("can't create database schema", "error", err)
			os.Exit(1)
		}

		// Mongo: event documents.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mg, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			slog.Error("can't connect to mongo", "error", err)
			os.Exit(1)
		}
		if err := mg.Ping(ctx, nil); err != nil {
			slog.Error("can't ping mongo", "error", err)
			os.Exit(1)
		}
		defer func() { _ = mg.Disconnect(context.Background()) }()

		userRepo = models.NewSQLUserRepository(sqldb)
		regRepo = models.NewSQLRegistrationRepository(sqldb)
		eventRepo = models.NewMongoEventRepository(mg.Database(cfg.MongoDatabase).Collection("events"))
		feedbackRepo = models.NewSQLFeedbackRepository(sqldb)
	}

	// Redis: response cache + quotas.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		slog.Error("can't ping redis", "error", err)
		os.Exit(1)
	}
	inv := utils.NewCacheInvalidator(rdb)

	var mailer utils.Mailer
	if cfg.SMTPHost != "" {
		mailer = utils.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPUser)
	} else {
		mailer = utils.NewLogMailer()
	}

	server := gin.Default()
	server.Use(middlewares.ResponseCache(rdb, cfg.CacheTTL))
	server.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes.RegisterRoutes(server, cfg, userRepo, regRepo, eventRepo, feedbackRepo, rdb, inv, mailer)

	slog.Info("listening", "addr", cfg.Addr)
	if err := server.Run(cfg.Addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
