package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lotas/tabkorb/internal/applog"
	"github.com/lotas/tabkorb/internal/categorize"
	"github.com/lotas/tabkorb/internal/config"
	"github.com/lotas/tabkorb/internal/controller"
	"github.com/lotas/tabkorb/internal/export"
	"github.com/lotas/tabkorb/internal/storage"
	"github.com/lotas/tabkorb/internal/store"
	"github.com/lotas/tabkorb/internal/tabs"
	"github.com/lotas/tabkorb/internal/tui"
	"github.com/lotas/tabkorb/internal/types"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "export":
			runExport(os.Args[2:])
			return
		case "help", "--help", "-h":
			printHelp()
			return
		}
	}

	fs := flag.NewFlagSet("tabkorb", flag.ExitOnError)
	port := fs.Int("port", defaultPort(), "WebSocket port for the extension bridge")
	dbPath := fs.String("db", "", "SQLite database path (default: ~/.local/share/tabkorb/tabkorb.db)")
	rulesPath := fs.String("rules", config.DefaultRulesPath(), "Categorization rules file")
	fs.Parse(os.Args[1:])

	if logDir, err := defaultLogDir(); err == nil {
		if err := applog.Init(logDir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		}
		defer applog.Close()
	}

	area, err := openArea(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer area.Close()

	engine := categorize.NewEngine()
	rules, err := config.LoadRules(*rulesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rules: %v\n", err)
		os.Exit(1)
	}
	if len(rules) > 0 {
		engine.AddStrategy(categorize.NewRuleBased(rules))
	}

	bridge := tabs.NewBridge(*port)
	ctrl := controller.New(store.New(), bridge, storage.NewGateway(area), engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := bridge.ListenAndServe(ctx); err != nil {
			applog.Error("bridge.serve", err)
		}
	}()
	go func() {
		ctrl.Start(ctx)
		ctrl.Run(ctx)
	}()

	p := tea.NewProgram(tui.NewModel(ctrl), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Print(`tabkorb — tab categorization dashboard

Usage:
  tabkorb                        Start the dashboard (default)
    --port <n>       WebSocket port for the extension bridge (default: 19192)
    --db <path>      SQLite database path (default: ~/.local/share/tabkorb/tabkorb.db)
    --rules <path>   Categorization rules file (default: ~/.config/tabkorb/rules.yaml)

  tabkorb export                 Export categorized tabs to stdout or file
    --json           Export as JSON instead of markdown
    --out <file>     Output file path (default: stdout)
    --port <n>       WebSocket port for the extension bridge (default: 19192)
    --db <path>      SQLite database path

Environment:
  TABKORB_PORT     Default bridge port (overridden by --port flag)
  TABKORB_DEBUG    Enable debug logging when set
`)
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	jsonFlag := fs.Bool("json", false, "Export as JSON instead of markdown")
	outFile := fs.String("out", "", "Output file path (default: stdout)")
	port := fs.Int("port", defaultPort(), "WebSocket port for the extension bridge")
	dbPath := fs.String("db", "", "SQLite database path")
	fs.Parse(args)

	area, err := openArea(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer area.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	data, err := storage.NewGateway(area).Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading stored data: %v\n", err)
		os.Exit(1)
	}

	liveTabs, err := listLive(ctx, *port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	groups := export.Build(liveTabs, data)
	var output string
	if *jsonFlag {
		output, err = export.JSON(groups)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating JSON: %v\n", err)
			os.Exit(1)
		}
	} else {
		output = export.Markdown(groups)
	}

	if *outFile != "" {
		if err := os.WriteFile(*outFile, []byte(output), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Print(output)
	}
}

// listLive waits for the extension to attach and returns its tab list.
func listLive(ctx context.Context, port int) ([]types.Tab, error) {
	bridge := tabs.NewBridge(port)
	go bridge.ListenAndServe(ctx)

	fmt.Fprintf(os.Stderr, "Waiting for extension on port %d...\n", port)
	for {
		select {
		case event := <-bridge.Events():
			if _, ok := event.(tabs.Connected); ok {
				return bridge.List(ctx)
			}
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for extension")
		}
	}
}

func openArea(path string) (*storage.SQLiteArea, error) {
	if path == "" {
		var err error
		path, err = storage.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return storage.OpenSQLiteArea(path)
}

func defaultPort() int {
	if v := os.Getenv("TABKORB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			return port
		}
	}
	return 19192
}

func defaultLogDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "tabkorb"), nil
}
