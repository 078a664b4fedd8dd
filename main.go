package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kr/pretty"
	"github.com/spf13/afero"

	"zvtdump/internal/capture"
	"zvtdump/internal/config"
	"zvtdump/internal/extractor"
	"zvtdump/internal/pcapfile"
	"zvtdump/internal/reporting"
	"zvtdump/internal/tshark"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args)
	if err != nil {
		if config.IsHelp(err) {
			fmt.Fprintln(stdout, err)
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	logger.Debug("resolved configuration", "config", pretty.Sprint(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ex := extractor.New(afero.NewOsFs(), cfg.ExtractorConfig(), logger)
	summary, err := ex.Run(ctx, openerFor(cfg), cfg.Input)
	if err != nil {
		// Blobs written before the failure are left in place.
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if err := reporting.WriteSummary(stdout, summary, cfg.OutputDir); err != nil {
		logger.Warn("failed to print summary", "error", err)
	}
	return 0
}

func openerFor(cfg config.Config) capture.Opener {
	switch cfg.Reader {
	case config.ReaderPcapgo:
		return pcapfile.Open
	case config.ReaderLibpcap:
		return libpcapOpen
	default:
		return tshark.Opener(cfg.TsharkPath)
	}
}
