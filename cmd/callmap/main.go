// Package main is the entry point for callmap, a terminal viewer for phone
// call records. It initializes configuration, services, and runs the Bubble
// Tea program, or one of the non-interactive subcommands.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/callmap/internal/app"
	"github.com/j-veylop/callmap/internal/config"
	"github.com/j-veylop/callmap/internal/logger"
	"github.com/j-veylop/callmap/internal/models"
	"github.com/j-veylop/callmap/internal/render"
	"github.com/j-veylop/callmap/internal/services"
	"github.com/j-veylop/callmap/internal/ui/tabs/bills"
	"github.com/j-veylop/callmap/internal/ui/tabs/history"
	"github.com/j-veylop/callmap/internal/ui/tabs/info"
	"github.com/j-veylop/callmap/internal/ui/tabs/mapview"
	"github.com/j-veylop/callmap/internal/version"
)

var errUsage = errors.New("invalid arguments, see --help")

func main() {
	args := os.Args[1:]

	if len(args) > 0 {
		switch args[0] {
		case "-v", "--version":
			fmt.Println(version.Info())
			os.Exit(0)
		case "-h", "--help":
			printUsage()
			os.Exit(0)
		}
	}

	var err error
	switch {
	case len(args) > 0 && args[0] == "bill":
		err = runBill(os.Stdout, args[1:])
	case len(args) > 0 && args[0] == "export":
		err = runExport(os.Stdout, args[1:])
	case len(args) > 0 && args[0] == "cancel":
		err = runCancel(os.Stdout, args[1:])
	case len(args) > 1:
		err = errUsage
	default:
		err = run(args)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration, letting a positional path override the
// dataset location.
func loadConfig(datasetPath string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if datasetPath != "" {
		cfg.DatasetPath = datasetPath
	}
	return cfg, nil
}

// run contains the TUI logic, separated for cleaner error handling.
func run(args []string) error {
	var datasetPath string
	if len(args) == 1 {
		datasetPath = args[0]
	}

	// 1. Load configuration from .env files and environment variables
	cfg, err := loadConfig(datasetPath)
	if err != nil {
		return err
	}

	// 2. Send logs to a file so they never draw over the TUI
	logFile, err := logger.Init(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logFile.Close()

	// 3. Initialize the service manager; the dataset itself is loaded by the
	// model so the spinner can show while it replays
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	// 4. Create the root Bubble Tea model and its tabs
	model := app.NewModel(svcManager)
	state := model.GetState()
	tabs := []app.Tab{
		mapview.New(state, svcManager), // Tab 0: Map - filtered calls
		bills.New(state, svcManager),   // Tab 1: Bills - monthly bills per customer
		history.New(state, svcManager), // Tab 2: History - trends and archive
		info.New(state, cfg),           // Tab 3: Info - dataset and configuration
	}
	model.SetTabs(tabs)

	// 5. Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// newBatchManager loads the dataset without the watcher or desktop
// notifications for one-shot subcommands. Logs follow LOG_PATH as in the TUI
// so they never mix with the command's output. done releases both.
func newBatchManager(datasetPath string) (mgr *services.Manager, snap *services.Snapshot, done func(), err error) {
	cfg, err := loadConfig(datasetPath)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg.WatchDataset = false
	cfg.Notify = false

	logFile, err := logger.Init(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	mgr, err = services.NewManager(cfg)
	if err != nil {
		_ = logFile.Close()
		return nil, nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	done = func() {
		_ = mgr.Close()
		_ = logFile.Close()
	}
	if snap, err = mgr.Load(); err != nil {
		done()
		return nil, nil, nil, err
	}
	return mgr, snap, done, nil
}

// runBill prints a customer's bill: bill <customer-id> <YYYY-MM> [dataset].
func runBill(w io.Writer, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errUsage
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid customer ID %q", args[0])
	}
	month, err := models.ParseMonthKey(args[1])
	if err != nil {
		return err
	}

	var datasetPath string
	if len(args) == 3 {
		datasetPath = args[2]
	}
	mgr, _, done, err := newBatchManager(datasetPath)
	if err != nil {
		return err
	}
	defer done()

	bill, err := mgr.Bill(id, month)
	if err != nil {
		return err
	}
	printBill(w, bill)
	return nil
}

func printBill(w io.Writer, bill models.CustomerBill) {
	fmt.Fprintf(w, "Customer %d, %s\n", bill.CustomerID, bill.Month)
	if len(bill.Lines) == 0 {
		fmt.Fprintln(w, "  no line billed this month")
	}
	for _, l := range bill.Lines {
		s := l.Summary
		fmt.Fprintf(w, "  %-12s %-8s fixed $%.2f  rate $%.3f/min  billed %s min  free %d min  total $%.2f\n",
			l.Number, s.Type, s.Fixed, s.MinuteRate,
			humanize.Comma(int64(s.BilledMinutes)), s.FreeMinutes, s.Total)
	}
	fmt.Fprintf(w, "Total: $%.2f\n", bill.Total)
}

// runCancel replays the dataset, cancels one line and prints what the
// customer owes for it: cancel <customer-id> <number> [dataset].
func runCancel(w io.Writer, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errUsage
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid customer ID %q", args[0])
	}

	var datasetPath string
	if len(args) == 3 {
		datasetPath = args[2]
	}
	_, snap, done, err := newBatchManager(datasetPath)
	if err != nil {
		return err
	}
	defer done()

	customer := snap.Result.Customer(id)
	if customer == nil {
		return fmt.Errorf("%w: %d", services.ErrUnknownCustomer, id)
	}
	owed, err := customer.CancelLine(args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Cancelled %s (customer %d): owes $%.2f\n", args[1], id, owed)
	return nil
}

// runExport renders every call to a PNG: export <out.png> [dataset].
func runExport(w io.Writer, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	out := args[0]
	if !strings.HasSuffix(strings.ToLower(out), ".png") {
		return fmt.Errorf("output %q must be a .png file", out)
	}

	var datasetPath string
	if len(args) == 2 {
		datasetPath = args[1]
	}
	mgr, snap, done, err := newBatchManager(datasetPath)
	if err != nil {
		return err
	}
	defer done()

	caption := fmt.Sprintf("%s calls | filters: none", humanize.Comma(int64(len(snap.Calls))))
	if err := render.WriteFile(out, snap.Calls, mgr.MapOptions(caption)); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %s calls to %s\n", humanize.Comma(int64(len(snap.Calls))), out)
	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`callmap - phone call records on a city map

Usage:
  callmap [flags] [dataset.json]
  callmap bill <customer-id> <YYYY-MM> [dataset.json]
  callmap export <out.png> [dataset.json]
  callmap cancel <customer-id> <number> [dataset.json]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-4             Switch between tabs (Map, Bills, History, Info)
  Tab/Shift+Tab   Navigate between tabs
  c               Filter by customer ID
  d               Filter by duration (L60, G300, ...)
  l               Filter by location rectangle
  m               Filter by month (YYYY-MM)
  r               Reset filters
  e               Export the map as PNG
  Ctrl+R          Reload the dataset
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  DATASET_PATH    Dataset JSON file (default: dataset.json)
  DATABASE_PATH   SQLite archive path
  MAP_IMAGE_PATH  Background image for PNG exports
  MAP_BOUNDS      Map rectangle "minLong, minLat, maxLong, maxLat"
  EXPORT_DIR      Directory for exported PNGs
  CONTRACT_START  First billing date (YYYY-MM-DD)
  TERM_END        Term contract end date (YYYY-MM-DD)
  PREPAID_CREDIT  Initial prepaid credit
  WATCH_DATASET   Reload when the dataset changes (default: true)
  NOTIFY          Desktop notification on reload (default: false)
  LOG_PATH        Log file; logs are discarded when unset
  LOG_LEVEL       debug, info, warn or error

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/callmap/.env
  - ~/.callmap/.env`)
}
