package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/gym-slots/internal/app"
	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/entity"
	"github.com/joseph-ayodele/gym-slots/internal/events"
	"github.com/joseph-ayodele/gym-slots/internal/pipeline"
)

type urlList []string

func (u *urlList) String() string { return strings.Join(*u, ",") }

func (u *urlList) Set(v string) error {
	*u = append(*u, strings.TrimSpace(v))
	return nil
}

type summary struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one batch and returns the process exit code: 0 on success,
// 1 on usage or setup errors and 2 when every slot failed.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var urls urlList
	fs.Var(&urls, "url", "schedule document URL (repeatable)")
	var (
		inmem     = fs.Bool("inmem", false, "use in-memory SQLite database")
		useHeur   = fs.Bool("heuristic", false, "use the heuristic slot extractor instead of the completion service")
		fallback  = fs.Bool("fallback", false, "fall back to the heuristic extractor when the completion service fails")
		out       = fs.String("out", "", "output XLSX file path (optional)")
		fromStr   = fs.String("from", "", "export from date YYYY-MM-DD")
		toStr     = fs.String("to", "", "export to date YYYY-MM-DD")
		publishEv = fs.Bool("publish", false, "publish ingestion events to AMQP_URL")
	)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if len(urls) == 0 {
		fmt.Fprintln(stderr, "Error: at least one --url is required")
		return 1
	}
	var from, to *time.Time
	for _, d := range []struct {
		raw  string
		dst  **time.Time
		name string
	}{{*fromStr, &from, "--from"}, {*toStr, &to, "--to"}} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.Parse(time.DateOnly, d.raw)
		if err != nil {
			fmt.Fprintf(stderr, "Error: invalid %s date format, use YYYY-MM-DD: %v\n", d.name, err)
			return 1
		}
		*d.dst = &parsed
	}

	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx := context.Background()
	cfg := common.LoadConfig()
	if *useHeur {
		cfg.Pipeline.SlotExtractor = "heuristic"
	}
	if *fallback {
		cfg.Pipeline.HeuristicFallback = true
	}

	dbResult, err := app.InitDatabase(ctx, cfg, *inmem, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		return 1
	}
	defer dbResult.Cleanup()

	var publisher events.Publisher = events.NopPublisher{}
	if *publishEv {
		publisher = events.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, logger)
	}
	c := app.Wire(cfg, dbResult.DB, publisher, logger)
	logger.Info("batch start", "urls", len(urls), "extractor", c.Extractor)

	sum := summary{Errors: []string{}}
	for _, u := range urls {
		src, err := c.Sources.Create(ctx, &entity.Source{URL: u, ParserVersion: cfg.Pipeline.ParserVersion})
		if err != nil {
			sum.Failed++
			sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %v", u, err))
			continue
		}
		res, err := c.Processor.Ingest(ctx, pipelineRequest(src))
		if err != nil {
			sum.Failed++
			sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %v", u, err))
			continue
		}
		sum.Success += res.SlotsAdded
		sum.Failed += res.SlotsFailed
		for _, e := range res.Errors {
			sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %s", u, e))
		}
	}

	if *out != "" {
		b, err := c.Exporter.ExportOpenSlotsXLSX(ctx, "", from, to)
		if err != nil {
			logger.Error("export failed", "error", err)
			return 1
		}
		if err := os.WriteFile(*out, b, 0o644); err != nil {
			logger.Error("failed to write export", "path", *out, "error", err)
			return 1
		}
		logger.Info("export written", "path", *out, "bytes", len(b))
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(sum)
	if sum.Success == 0 && sum.Failed > 0 {
		return 2
	}
	return 0
}

func pipelineRequest(src *entity.Source) pipeline.Request {
	return pipeline.Request{SourceID: src.ID, URL: src.URL}
}
