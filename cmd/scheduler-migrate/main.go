package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-scheduler/migrations"
	"github.com/noah-isme/academic-scheduler/pkg/config"
	"github.com/noah-isme/academic-scheduler/pkg/database"
	"github.com/noah-isme/academic-scheduler/pkg/logger"
)

// usage: scheduler-migrate [up|down|status|redo|version] [args...]
func main() {
	flag.Parse()
	args := flag.Args()
	command := "up"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		logr.Fatal("unsupported dialect", zap.Error(err))
	}
	if err := goose.Run(command, db.DB, ".", args...); err != nil {
		logr.Fatal("migration failed", zap.String("command", command), zap.Error(err))
	}
	logr.Info("migration finished", zap.String("command", command))
}
