package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"

	"rent-dashboard/config"
	ierr "rent-dashboard/errors"
	"rent-dashboard/models"
	"rent-dashboard/services"
	"rent-dashboard/storage"
	"rent-dashboard/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Command is a CLI entry point.
type Command struct {
	Name        string
	Description string
	Run         func(ctx context.Context, a *app) error
}

// app carries what every command needs.
type app struct {
	cfg    *config.Config
	logger *utils.Logger

	scope     models.Scope
	selection string
	metrics   []models.MetricKind
	where     string
	asJSON    bool
}

var commands = []Command{
	{
		Name:        "query",
		Description: "Compute dashboard tables for a selection",
		Run:         runQuery,
	},
	{
		Name:        "options",
		Description: "List selectable values for a scope",
		Run:         runOptions,
	},
	{
		Name:        "overview",
		Description: "Whole-dataset ranking with the selection highlighted",
		Run:         runOverview,
	},
	{
		Name:        "import",
		Description: "Load the CSV dataset into PostgreSQL",
		Run:         runImport,
	},
}

func main() {
	var (
		listCommands bool
		cmdName      string
		scope        string
		selection    string
		metrics      string
		where        string
		path         string
		asJSON       bool
	)

	flag.BoolVar(&listCommands, "list", false, "List all available commands")
	flag.StringVar(&cmdName, "cmd", "query", "Command to run")
	flag.StringVar(&scope, "scope", string(models.ScopeState), "Selection scope: state or city")
	flag.StringVar(&selection, "selection", models.All, "Selected state or city, or \"all\"")
	flag.StringVar(&metrics, "metrics", "", "Comma separated metrics (default all)")
	flag.StringVar(&where, "where", "", "Additional filter expression, e.g. 'balcony == true'")
	flag.StringVar(&path, "path", "", "Dataset file (overrides DATA_PATH)")
	flag.BoolVar(&asJSON, "json", false, "Write results as JSON")

	flag.Parse()

	if listCommands {
		fmt.Println("Available commands:")
		for _, cmd := range commands {
			fmt.Printf("  %-20s %s\n", cmd.Name, cmd.Description)
		}
		fmt.Printf("\nMetrics: %s\n", strings.Join(lo.Map(models.MetricKinds, func(m models.MetricKind, _ int) string {
			return string(m)
		}), ", "))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		utils.NewLogger().Error("[main] Configuration error: %v", err)
		os.Exit(1)
	}
	if path != "" {
		cfg.DataPath = path
	}

	logger := utils.NewLoggerWithLevel(cfg.LogLevel)
	defer logger.Sync()

	a := &app{
		cfg:       cfg,
		logger:    logger,
		scope:     models.Scope(strings.ToLower(strings.TrimSpace(scope))),
		selection: selection,
		metrics:   parseMetrics(metrics),
		where:     where,
		asJSON:    asJSON,
	}

	cmd, ok := lo.Find(commands, func(c Command) bool { return c.Name == cmdName })
	if !ok {
		logger.Error("[main] Unknown command: %s. Use -list to see available commands.", cmdName)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := cmd.Run(ctx, a); err != nil {
		logger.Error("[main] Error running command %s: %v", cmdName, err)
		if ierr.IsDatabase(err) {
			logger.Error("[main] Make sure PostgreSQL is reachable at %s:%s", cfg.PostgresHost, cfg.PostgresPort)
		}
		os.Exit(1)
	}
}

func parseMetrics(s string) []models.MetricKind {
	parts := lo.Compact(lo.Map(strings.Split(s, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	}))
	return lo.Map(parts, func(p string, _ int) models.MetricKind { return models.MetricKind(p) })
}

// loadPipeline builds the Pipeline from the configured data source. A load
// failure is fatal: no dashboard is served over partial data.
func (a *app) loadPipeline(ctx context.Context) *services.Pipeline {
	opts := services.PipelineOptions{
		SampleSize:   a.cfg.SampleSize,
		SampleSeed:   a.cfg.SampleSeed,
		CacheEnabled: a.cfg.CacheEnabled,
	}

	var src storage.DatasetSource
	switch a.cfg.DataSource {
	case "postgres":
		store, err := a.openStore(ctx)
		if err != nil {
			a.logger.Error("[main] Failed to connect to PostgreSQL: %v", err)
			a.logger.Error("[main] Make sure PostgreSQL is reachable at %s:%s", a.cfg.PostgresHost, a.cfg.PostgresPort)
			os.Exit(1)
		}
		defer store.Close()
		src = store
	default:
		src = a.csvSource()
	}

	pipeline, err := services.LoadPipeline(ctx, src, opts, a.logger)
	if err != nil {
		a.logger.Error("[main] Failed to load dataset: %v", err)
		os.Exit(1)
	}
	return pipeline
}

func (a *app) csvSource() *storage.CSVSource {
	return storage.NewCSVSource(a.cfg.DataPath, a.cfg.Delimiter(), services.NewCleaner(a.logger))
}

func (a *app) openStore(ctx context.Context) (*storage.PostgresStore, error) {
	retry := &utils.RetryConfig{
		MaxAttempts: a.cfg.MaxRetries,
		BaseDelay:   time.Second,
		Logger:      a.logger,
	}
	return storage.NewPostgresStore(ctx, a.cfg.DSN(), retry, a.cfg.ImportConcurrency, a.logger)
}

func (a *app) sel() models.Selection {
	return models.Selection{Scope: a.scope, Value: a.selection}
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runQuery(ctx context.Context, a *app) error {
	pipeline := a.loadPipeline(ctx)

	result, err := pipeline.QueryWhere(a.sel(), a.where, a.metrics...)
	if err != nil {
		return err
	}
	if a.asJSON {
		return a.writeJSON(result)
	}
	services.NewPrinter(os.Stdout).Print(a.sel(), result)
	return nil
}

func runOptions(ctx context.Context, a *app) error {
	pipeline := a.loadPipeline(ctx)

	opts, err := pipeline.Options(a.scope)
	if err != nil {
		return err
	}
	if a.asJSON {
		return a.writeJSON(opts)
	}
	for _, o := range opts {
		fmt.Println(o)
	}
	return nil
}

func runOverview(ctx context.Context, a *app) error {
	pipeline := a.loadPipeline(ctx)

	table, err := pipeline.Overview(a.sel())
	if err != nil {
		return err
	}
	if a.asJSON {
		return a.writeJSON(table)
	}
	services.NewPrinter(os.Stdout).PrintTable(table)
	return nil
}

// runImport parses the CSV dataset and replaces the rent_listings table.
func runImport(ctx context.Context, a *app) error {
	start := time.Now()

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := storage.Copy(ctx, a.csvSource(), store)
	if err != nil {
		return err
	}
	a.logger.Info("[import] Imported %d records from %s in %v", n, a.cfg.DataPath, time.Since(start))
	return nil
}
