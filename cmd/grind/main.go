package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"grindchain/config"
	"grindchain/observability/logging"
	"grindchain/rpc"
	"grindchain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("GRIND_ENV"))
	logger := logging.Setup("grind", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		panic(fmt.Sprintf("Failed to prepare data directory: %v", err))
	}
	db, err := storage.OpenBolt(filepath.Join(cfg.DataDir, "grind.db"))
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	var backing *big.Int
	if cfg.BackingReserve > 0 {
		backing = big.NewInt(cfg.BackingReserve)
	}

	server := rpc.NewServer(db, rpc.Options{
		Logger:         logger,
		BackingReserve: backing,
	})

	logger.Info("node ready",
		slog.String("network", cfg.NetworkName),
		slog.String("dataDir", cfg.DataDir),
	)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
