package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/milk9111/fieldroutes/logging"
)

func main() {
	var cfg config
	flag.StringVar(&cfg.field, "field", "default", "field spec: a YAML file or the name of an embedded field")
	flag.StringVar(&cfg.addr, "addr", ":8080", "listen address for the /paths websocket")
	flag.BoolVar(&cfg.watch, "watch", false, "reload the field spec and reroute script when they change on disk")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "debug, info, warn or error")
	flag.StringVar(&cfg.logFormat, "log-format", "text", "text or json")
	flag.BoolVar(&cfg.once, "once", false, "print every path after activation and exit")
	flag.BoolVar(&cfg.staleRejection, "stale-rejection", false, "discard results older than the newest applied one per entrance")
	flag.Parse()

	level, err := logging.ParseLevel(cfg.logLevel)
	if err != nil {
		log.Fatal(err)
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.logFormat
	logCfg.Component = "fieldroutes"
	logger := logging.NewLogger(logCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Stdout); err != nil {
		logger.Error("fieldroutes failed", "error", err)
		stop()
		os.Exit(1)
	}
}
