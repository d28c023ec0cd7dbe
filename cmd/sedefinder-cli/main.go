package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"yashubustudio/sedefinder/finder"
	"yashubustudio/sedefinder/internal/server"
)

func main() {
	app := &cli.App{
		Name:  "sedefinder-cli",
		Usage: "Search school sites and data categories in a sites dataset",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config.json or config.toml (default: ./config.json)",
			},
			&cli.StringFlag{
				Name:    "dataset",
				Aliases: []string{"d"},
				Usage:   "CSV/TSV/XLSX dataset (overrides datasetPath in the config)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "locate",
				Aliases:   []string{"l"},
				Usage:     "Find sites and institutions by name, code or municipality",
				ArgsUsage: "QUERY",
				Flags:     queryFlags(),
				Action:    locateCommand,
			},
			{
				Name:      "categories",
				Aliases:   []string{"cat"},
				Usage:     "Find data column groups such as Docentes or Matrícula",
				ArgsUsage: "QUERY",
				Flags: append(queryFlags(), &cli.BoolFlag{
					Name:  "rows",
					Usage: "Print the rows covered by the best group",
				}),
				Action: categoriesCommand,
			},
			{
				Name:  "summary",
				Usage: "Print dataset KPIs",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
				},
				Action: summaryCommand,
			},
			{
				Name:  "serve",
				Usage: "Serve the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "Listen address (default from config, :8080)"},
					&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Reload the dataset when its file changes"},
					&cli.BoolFlag{Name: "access-log", Usage: "Log every HTTP request"},
				},
				Action: serveCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("sedefinder-cli: %v", err)
	}
}

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum results (0 = configured display limit)"},
		&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
	}
}

// loadService reads the config and dataset named by the global flags.
func loadService(c *cli.Context, logger *log.Logger) (*finder.Service, error) {
	cfg, err := finder.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if path := strings.TrimSpace(c.String("dataset")); path != "" {
		cfg.DatasetPath = path
	}
	if cfg.DatasetPath == "" {
		return nil, errors.New("missing dataset: pass --dataset or set datasetPath in the config")
	}
	svc := finder.NewService(cfg, logger)
	if err := svc.LoadFile(cfg.DatasetPath); err != nil {
		return nil, err
	}
	for _, hint := range missingFieldHints(svc.Index()) {
		logger.Print(hint)
	}
	return svc, nil
}

// missingFieldHints names the closest headers for every unresolved field.
func missingFieldHints(idx *finder.Index) []string {
	if idx == nil {
		return nil
	}
	var out []string
	for _, f := range []finder.Field{
		finder.FieldSiteName, finder.FieldInstitution, finder.FieldMunicipality,
		finder.FieldLocation, finder.FieldStatus, finder.FieldSiteCode, finder.FieldInstitutionCode,
	} {
		if idx.Fields[f].Found() {
			continue
		}
		near := finder.SuggestHeaders(f.String(), idx.Headers, 2)
		if len(near) == 0 {
			continue
		}
		out = append(out, fmt.Sprintf("hint: no column for %s; did you mean %s? (set fieldCandidates in the config)",
			f, strings.Join(quoteAll(near), " or ")))
	}
	return out
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%q", v)
	}
	return out
}

func stderrLogger() *log.Logger {
	return log.New(os.Stderr, "", log.LstdFlags)
}

func locateCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("locate: missing QUERY")
	}
	svc, err := loadService(c, stderrLogger())
	if err != nil {
		return err
	}
	cards := svc.SearchEntities(query, c.Int("limit"))
	if c.Bool("json") {
		return writeJSON(os.Stdout, cards)
	}
	writeEntities(os.Stdout, cards)
	return nil
}

func categoriesCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("categories: missing QUERY")
	}
	svc, err := loadService(c, stderrLogger())
	if err != nil {
		return err
	}
	cards := svc.SearchCategories(query, c.Int("limit"))
	if c.Bool("json") {
		return writeJSON(os.Stdout, cards)
	}
	writeCategories(os.Stdout, cards)
	if c.Bool("rows") && len(cards) > 0 {
		fmt.Fprintln(os.Stdout)
		writeTable(os.Stdout, cards[0].Selection().Table())
	}
	return nil
}

func summaryCommand(c *cli.Context) error {
	svc, err := loadService(c, stderrLogger())
	if err != nil {
		return err
	}
	sum := svc.Summary()
	if c.Bool("json") {
		return writeJSON(os.Stdout, sum)
	}
	writeSummary(os.Stdout, sum)
	return nil
}

func serveCommand(c *cli.Context) error {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	svc, err := loadService(c, logger)
	if err != nil {
		return err
	}
	cfg := svc.Config()
	addr := c.String("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(svc, server.Options{Logger: logger, AccessLog: c.Bool("access-log")})
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Println("Shutting down server...")
		return srv.Shutdown()
	})
	if c.Bool("watch") || cfg.Watch.Enabled {
		w := finder.NewWatcher(svc, svc.Source(), time.Duration(cfg.Watch.DebounceMs)*time.Millisecond, logger)
		g.Go(func() error {
			return w.Run(gctx)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Println("Server exited")
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeEntities(w io.Writer, cards []finder.EntitySuggestion) {
	if len(cards) == 0 {
		fmt.Fprintln(w, "No matches")
		return
	}
	for i, card := range cards {
		fmt.Fprintf(w, "%d. %s\n", i+1, card.Key)
		for _, line := range card.DisplayFields {
			fmt.Fprintf(w, "    %s: %s\n", line.Label, line.Value)
		}
	}
}

func writeCategories(w io.Writer, cards []finder.CategorySuggestion) {
	if len(cards) == 0 {
		fmt.Fprintln(w, "No matches")
		return
	}
	for i, card := range cards {
		fmt.Fprintf(w, "%d. %s (%d sedes)\n", i+1, card.BaseLabel, card.MatchingRowCount)
		fmt.Fprintf(w, "    columns: %s\n", strings.Join(card.Headers, ", "))
		if len(card.TopMunicipalities) > 0 {
			fmt.Fprintf(w, "    top: %s\n", formatCounts(card.TopMunicipalities))
		}
	}
}

func writeSummary(w io.Writer, s finder.Summary) {
	fmt.Fprintf(w, "Sedes: %d\n", s.Sites)
	fmt.Fprintf(w, "Entities: %d\n", s.Entities)
	fmt.Fprintf(w, "Total: %s\n", finder.FormatTotal(s.TotalSum))
	if len(s.Municipalities) > 0 {
		fmt.Fprintf(w, "Municipalities: %s\n", formatCounts(s.Municipalities))
	}
	if len(s.Locations) > 0 {
		fmt.Fprintf(w, "Locations: %s\n", formatCounts(s.Locations))
	}
	if len(s.Statuses) > 0 {
		fmt.Fprintf(w, "Statuses: %s\n", formatCounts(s.Statuses))
	}
}

func writeTable(w io.Writer, t finder.Table) {
	fmt.Fprintln(w, strings.Join(t.Columns, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}

func formatCounts(counts []finder.MunicipalityCount) string {
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s (%d)", c.Name, c.Count)
	}
	return strings.Join(parts, ", ")
}
