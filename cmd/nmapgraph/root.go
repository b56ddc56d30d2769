package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"nmapgraph/internal/adapter"
	"nmapgraph/internal/codec"
	"nmapgraph/internal/config"
	"nmapgraph/internal/convert"
	"nmapgraph/internal/delivery"
	"nmapgraph/internal/logging"
	"nmapgraph/internal/repository"
	"nmapgraph/internal/repository/httpstore"
	"nmapgraph/internal/repository/sqlite"
	"nmapgraph/internal/service"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configPath     string
	logLevel       string
	defaultGateway string
	dryRun         bool
	output         string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "nmapgraph",
		Short: "Load nmap scan results into a graph inventory",
		Long: `nmapgraph converts nmap results into host entities and delivers them to
an inventory store, either a local SQLite database or a remote inventory API.

Examples:
  nmap -sV -oX - 192.168.1.0/24 | nmapgraph ingest
  nmapgraph ingest scan.xml --dry-run --output yaml
  nmapgraph scan 192.168.1.0/24 --ports 22,80,443,548`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file path (default: search "+config.ConfigFileName+" and XDG locations)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.defaultGateway, "default-gateway", "", "IP address of the default gateway")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "print entities instead of delivering them")
	pf.StringVarP(&flags.output, "output", "o", "json", "dry-run output format (json, yaml)")

	cmd.AddCommand(newIngestCmd(flags))
	cmd.AddCommand(newScanCmd(flags))
	cmd.AddCommand(newInitConfigCmd())

	return cmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// runtime is the configuration and logger a subcommand works with
type runtime struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// setup loads config, applies flag overrides and builds the logger
func setup(cmd *cobra.Command, flags *globalFlags) (*runtime, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, _, err = config.LoadFromPath(flags.configPath)
	} else {
		cfg, _, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	pf := cmd.Flags()
	if pf.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if pf.Changed("default-gateway") {
		cfg.Convert.DefaultGateway = flags.defaultGateway
	}
	if pf.Changed("dry-run") {
		cfg.Delivery.DryRun = flags.dryRun
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}

	return &runtime{cfg: cfg, logger: logger}, nil
}

// openStore opens the configured entity store
func openStore(cfg *config.Config) (repository.EntityStore, error) {
	switch cfg.Store.Driver {
	case config.DriverHTTP:
		return httpstore.New(httpstore.Config{
			Endpoint:    cfg.Store.Endpoint,
			AccessToken: cfg.Store.AccessToken,
			Account:     cfg.Store.Account,
		})
	default:
		return sqlite.New(cfg.Store.Path)
	}
}

// pipeline converts documents and hands the entities to the configured store
type pipeline struct {
	svc      *service.IngestService
	store    repository.EntityStore
	progress *progress
}

// newPipeline wires conversion, delivery and output for one command run
func newPipeline(rt *runtime, outputFormat string, out, status io.Writer) (*pipeline, error) {
	exporter, err := codec.ExporterFor(outputFormat)
	if err != nil {
		return nil, err
	}

	opts := convert.DefaultOptions()
	opts.DefaultGateway = rt.cfg.Convert.DefaultGateway
	opts.Logger = logging.WithComponent(rt.logger, "convert")

	p := &pipeline{}
	var publisher *delivery.Publisher
	if !rt.cfg.Delivery.DryRun {
		store, err := openStore(rt.cfg)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", rt.cfg.Store.Driver, err)
		}
		p.store = store

		bus := delivery.NewEventBus()
		p.progress = newProgress(bus, status)

		publisher = delivery.New(store, delivery.Config{
			Interval: rt.cfg.Delivery.Interval.Duration(),
			Burst:    rt.cfg.Delivery.Burst,
		}, bus, logging.WithComponent(rt.logger, "delivery"))
	}

	p.svc = service.NewIngestService(service.Config{
		Convert:  opts,
		DryRun:   rt.cfg.Delivery.DryRun,
		Exporter: exporter,
		Output:   out,
	}, publisher, rt.logger)

	return p, nil
}

// run ingests one document from src
func (p *pipeline) run(ctx context.Context, src adapter.Source) error {
	_, err := p.svc.Run(ctx, src)
	return err
}

// Close stops progress reporting and releases the store
func (p *pipeline) Close() error {
	if p.progress != nil {
		p.progress.Stop()
	}
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}
