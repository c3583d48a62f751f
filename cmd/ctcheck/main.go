// Command ctcheck runs the constant-time-go self-test suite: the
// algebraic properties, the PKCS#1 end-to-end scenarios, and a
// statistical timing-variance check, with optional TUI and HTTP
// front ends.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/lookbusy1344/constant-time-go/api"
	"github.com/lookbusy1344/constant-time-go/config"
	"github.com/lookbusy1344/constant-time-go/dashboard"
	"github.com/lookbusy1344/constant-time-go/report"
	"github.com/lookbusy1344/constant-time-go/selftest"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		runSelfTest = flag.Bool("self-test", false, "Run the self-test suite once and print a report")
		timingCheck = flag.Bool("timing-check", false, "Run only the timing-variance checks")
		tuiMode     = flag.Bool("tui", false, "Start the interactive TUI dashboard")
		serve       = flag.Bool("serve", false, "Start the HTTP API server")
		port        = flag.Int("port", 8744, "API server port (used with -serve)")
		configPath  = flag.String("config", "", "Path to config.toml (default: platform config dir)")
		format      = flag.String("format", "", "Report format: json or csv (default: from config)")
		outputFile  = flag.String("output", "", "Report output file (default: from config, empty means stdout)")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("ctcheck %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *serve {
		runServer(cfg, *port)
		return
	}

	if *tuiMode {
		runDashboard(cfg)
		return
	}

	opts := optionsFromConfig(cfg)
	if *timingCheck {
		opts.RunProperties = false
		opts.RunScenarios = false
		opts.RunTiming = true
	}

	if !*runSelfTest && !*timingCheck {
		printHelp()
		os.Exit(0)
	}

	rep := selftest.Run(opts)

	outFormat := *format
	if outFormat == "" {
		outFormat = cfg.Report.Format
	}
	outPath := *outputFile
	if outPath == "" {
		outPath = cfg.Report.OutputFile
	}

	if err := writeReport(rep, outFormat, outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		os.Exit(1)
	}

	if !rep.Passed() {
		fmt.Fprintf(os.Stderr, "self-test FAILED: %d check(s) did not pass\n", rep.FailureCount())
		os.Exit(1)
	}
	fmt.Println("self-test PASSED")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func optionsFromConfig(cfg *config.Config) selftest.Options {
	opts := selftest.DefaultOptions()
	if cfg.Selftest.Iterations > 0 {
		opts.Iterations = cfg.Selftest.Iterations
	}
	opts.RunProperties = cfg.Selftest.RunProperties
	opts.RunScenarios = cfg.Selftest.RunScenarios
	opts.FailFast = cfg.Selftest.FailFast

	opts.RunTiming = cfg.Timing.Enabled
	if cfg.Timing.Samples > 0 {
		opts.TimingSamples = cfg.Timing.Samples
	}
	if cfg.Timing.BufferSize > 0 {
		opts.TimingBufSize = cfg.Timing.BufferSize
	}
	if cfg.Timing.MaxSkewRatio > 0 {
		opts.MaxSkewRatio = cfg.Timing.MaxSkewRatio
	}
	return opts
}

func writeReport(rep *report.Report, format, path string) error {
	w := os.Stdout
	if path != "" {
		f, err := os.Create(path) // #nosec G304 -- user-specified report output path
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close report file: %v\n", cerr)
			}
		}()
		w = f
	}

	switch format {
	case "csv":
		return rep.ExportCSV(w)
	default:
		return rep.ExportJSON(w)
	}
}

func runDashboard(cfg *config.Config) {
	d := dashboard.New(optionsFromConfig(cfg))
	if err := d.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(cfg *config.Config, port int) {
	addr := cfg.Server.Addr
	if addr == "" || port != 8744 {
		addr = fmt.Sprintf(":%d", port)
	}
	server := api.NewServer(portFromAddr(addr))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownOnce sync.Once
	performShutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Println("\nShutting down API server...")

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
				os.Exit(1)
			}

			fmt.Println("API server stopped")
			os.Exit(0)
		})
	}

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-sigChan
	performShutdown()
}

func portFromAddr(addr string) int {
	var port int
	if _, err := fmt.Sscanf(addr, ":%d", &port); err == nil {
		return port
	}
	return 8744
}

func printHelp() {
	fmt.Printf(`ctcheck %s

Usage: ctcheck -self-test [options]
       ctcheck -timing-check
       ctcheck -tui
       ctcheck -serve [-port N]

Options:
  -help            Show this help message
  -version         Show version information
  -self-test       Run the self-test suite once and print a report
  -timing-check    Run only the timing-variance checks
  -tui             Start the interactive TUI dashboard
  -serve           Start the HTTP API server
  -port N          API server port (default: 8744, used with -serve)
  -config FILE     Path to config.toml (default: platform config dir)
  -format FMT      Report format: json or csv (default: from config)
  -output FILE     Report output file (default: from config, empty means stdout)

Examples:
  ctcheck -self-test
  ctcheck -self-test -format csv -output report.csv
  ctcheck -timing-check
  ctcheck -tui
  ctcheck -serve -port 9000
`, Version)
}
