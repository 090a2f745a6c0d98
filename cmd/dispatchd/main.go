package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/GrandEngineering/engine/modules/fib"
	"github.com/GrandEngineering/engine/pkg/config"
	"github.com/GrandEngineering/engine/pkg/dispatch"
	"github.com/GrandEngineering/engine/pkg/events"
	"github.com/GrandEngineering/engine/pkg/log"
	"github.com/GrandEngineering/engine/pkg/metrics"
	"github.com/GrandEngineering/engine/pkg/module"
	"github.com/GrandEngineering/engine/pkg/reclaim"
	"github.com/GrandEngineering/engine/pkg/registry"
	"github.com/GrandEngineering/engine/pkg/rpc"
	"github.com/GrandEngineering/engine/pkg/storage"
	"github.com/GrandEngineering/engine/pkg/taskstore"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "dispatchd",
	Short:   "dispatchd - distributed task dispatch engine",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"dispatchd version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", "./config.toml", "Path to config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(moduleCmd)
	rootCmd.AddCommand(completionCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.ParseLevel(logLevel),
		JSONOutput: logJSON,
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dispatch engine",
	RunE:  runServe,
}

var metricsAddr string

func init() {
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "127.0.0.1:9090", "Metrics/health HTTP listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	kv, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open KV store: %w", err)
	}
	defer kv.Close()

	reg := registry.New()
	bus := events.New(cfg.CgrpcToken)
	loader := module.New(reg, bus, module.ABIVersion, module.ToolchainVersion)

	loader.LoadDevMode(fib.Metadata(), fib.Run)
	if err := loader.LoadAll(cfg.ModulesDir); err != nil {
		return fmt.Errorf("load modules: %w", err)
	}

	store, err := taskstore.New(reg, kv, cfg.PaginationLimit)
	if err != nil {
		return fmt.Errorf("init task store: %w", err)
	}

	svc := dispatch.New(reg, store, bus, loader)

	start := events.NewStartEvent(loader.ModuleInfos())
	bus.Dispatch(events.StartIdentifier, start)
	if start.Cancelled() {
		fmt.Println("startup cancelled by a module handler")
		return nil
	}

	reclaimer := reclaim.New(
		store,
		svc,
		time.Duration(cfg.CleanTasksMinutes)*time.Minute,
		time.Duration(cfg.ReclaimThresholdSeconds)*time.Second,
	)
	reclaimer.Start()
	defer reclaimer.Stop()

	lis, err := net.Listen("tcp", cfg.Host)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Host, err)
	}

	grpcServer := grpc.NewServer(rpc.ServerCodecOption())
	rpc.RegisterDispatchServer(grpcServer, svc)

	metrics.SetVersion(Version)
	metrics.RegisterComponent("storage", true, "ready")
	metrics.RegisterComponent("dispatch", true, "ready")

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.Handle("/health", metrics.HealthHandler())
		mux.Handle("/ready", metrics.ReadyHandler())
		mux.Handle("/live", metrics.LivenessHandler())
		if err := http.ListenAndServe(metricsAddr, mux); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "metrics server error: %v\n", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	fmt.Printf("dispatchd listening on %s (metrics on %s)\n", cfg.Host, metricsAddr)
	for _, m := range sortedModuleNames(loader.ModuleInfos()) {
		fmt.Printf("  loaded module: %s\n", m)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nshutting down...")
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "grpc server error: %v\n", err)
	}

	grpcServer.GracefulStop()
	return nil
}

func sortedModuleNames(mods []events.ModuleInfo) []string {
	names := make([]string, 0, len(mods))
	for _, m := range mods {
		names = append(names, m.ID+" ("+m.Name+")")
	}
	sort.Strings(names)
	return names
}

var moduleCmd = &cobra.Command{
	Use:   "module",
	Short: "Inspect modules loaded by a running dispatchd",
}

var (
	moduleTarget string
	moduleToken  string
)

func init() {
	moduleCmd.PersistentFlags().StringVar(&moduleTarget, "target", "[::1]:50051", "dispatchd gRPC address")
	moduleCmd.PersistentFlags().StringVar(&moduleToken, "token", "", "admin token (cgrpc_token)")
	moduleCmd.AddCommand(moduleListCmd)
}

var moduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List modules loaded by a running dispatchd",
	RunE:  runModuleList,
}

func runModuleList(cmd *cobra.Command, args []string) error {
	conn, err := rpc.Dial(moduleTarget)
	if err != nil {
		return fmt.Errorf("dial %s: %w", moduleTarget, err)
	}
	defer conn.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if moduleToken != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", moduleToken)
	}

	resp, err := rpc.CallListModules(ctx, conn, &rpc.ListModulesRequest{})
	if err != nil {
		return fmt.Errorf("list modules: %w", err)
	}

	if len(resp.Modules) == 0 {
		fmt.Println("no modules loaded")
		return nil
	}
	for _, m := range resp.Modules {
		fmt.Printf("%s\t%s v%s (%s)\n", m.ModID, m.Name, m.Version, m.Author)
	}
	return nil
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh]",
	Short: "Generate shell completion scripts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		default:
			return fmt.Errorf("unsupported shell %q", args[0])
		}
	},
}
