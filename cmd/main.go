package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/joho/godotenv"
	"log/slog"
	"magal/internal/app"
	"magal/internal/bus"
	"magal/internal/config"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	_ = godotenv.Load(".env")

	configPath := flag.String("config", "", "path to the yaml config (CONFIG_PATH wins)")
	flag.Usage = func() {
		printUsage(flag.CommandLine.Output())
	}
	flag.Parse()

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	log := setupSlog(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Error("failed to close session store", slog.String("error", err.Error()))
		}
	}()

	// Принудительный выход: сервер отозвал токен
	unsubscribe := application.OnSessionInvalidated(func(ev bus.SessionInvalidated) {
		if silentInvalidation(ev) {
			return
		}
		fmt.Fprintln(os.Stderr, "session expired, run `magal login` again")
	})
	defer unsubscribe()

	return run(ctx, application, flag.Args(), os.Stdout, os.Stderr)
}

// silentInvalidation reports a 401 the running command already explains:
// a wrong password on login or registration, or a revoked token on logout.
func silentInvalidation(ev bus.SessionInvalidated) bool {
	switch ev.Path {
	case "/auth/login", "/auth/register", "/auth/logout":
		return true
	default:
		return false
	}
}

// setupSlog logs to stderr; stdout carries command output.
func setupSlog(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvLocal:
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvDev:
		log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvProd:
		log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return log
}
