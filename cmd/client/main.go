package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/iudanet/passvault/internal/client/api"
	"github.com/iudanet/passvault/internal/client/cli"
	"github.com/iudanet/passvault/internal/client/storage/boltdb"
	"github.com/iudanet/passvault/internal/client/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	cachePath := flag.String("db", "passvault-cache.db", "Path to local encrypted cache")
	sessionPath := flag.String("session-db", "passvault-session.db", "Path to session database")
	masterPassword := flag.String("master-password", "", "Master password (not recommended)")
	masterPasswordFile := flag.String("master-password-file", "", "Path to file containing master password")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}
	command := args[0]

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	// Сессия в bbolt
	sessionStorage, err := boltdb.New(ctx, *sessionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open session database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := sessionStorage.Close(); err != nil {
			logger.Error("failed to close session database", "error", err)
		}
	}()

	// Зашифрованный кэш в sqlite
	cache, err := sqlite.New(ctx, *cachePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open cache database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Error("failed to close cache database", "error", err)
		}
	}()

	apiClient := api.NewClient(*serverURL)

	app := cli.New(logger, apiClient, sessionStorage, cache, cli.Passwords{
		FromFile: *masterPasswordFile,
		FromArgs: *masterPassword,
	})
	defer app.Close()

	app.Run(ctx, command, args[1:])
}

func printVersion() {
	fmt.Printf("PassVault Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
