package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/merittools/aktiva-client/pkg/cache"
	"github.com/merittools/aktiva-client/pkg/client"
	"github.com/merittools/aktiva-client/pkg/dates"
	"github.com/merittools/aktiva-client/pkg/endpoint"
	"github.com/merittools/aktiva-client/pkg/fetcher"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var (
	sinceFlag string
	untilFlag string
	outFlag   string
)

var exportCmd = &cobra.Command{
	Use:   "export [resources...]",
	Short: "Export Aktiva resources to NDJSON files",
	Long: fmt.Sprintf(`Export one or more resources to NDJSON files, one file per resource.
Without arguments all resources from the catalog are exported.

Example:
%s`, color.GreenString("  aktiva-extract export sales_invoices payments --since 20240101")),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(args)
	},
}

func init() {
	exportCmd.Flags().StringVar(&sinceFlag, "since", "", "start date for incremental resources (YYYYMMDD, default trailing 12 months)")
	exportCmd.Flags().StringVar(&untilFlag, "until", "", "end date for incremental resources (YYYYMMDD, default today)")
	exportCmd.Flags().StringVarP(&outFlag, "out", "o", "", "output directory (default from config)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(names []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	eps, err := resolveEndpoints(names)
	if err != nil {
		return err
	}

	opts, err := fetchOptions()
	if err != nil {
		return err
	}

	outDir := outFlag
	if outDir == "" {
		outDir = cfg.Extract.OutputDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, cleanup, err := buildFetcher()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("\nExporting %d resources to %s...\n\n", len(eps), outDir)

	p := mpb.New(mpb.WithWidth(64))
	bar := p.New(int64(len(eps)),
		mpb.BarStyle(),
		mpb.PrependDecorators(
			decor.Name("resources", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(decor.Elapsed(decor.ET_STYLE_GO)),
	)

	total := 0
	var failed []string
	for _, ep := range eps {
		epOpts := opts
		if !ep.Incremental {
			epOpts = nil
		}
		n, err := exportResource(ctx, f, ep, outDir, epOpts)
		total += n
		if err != nil {
			failed = append(failed, ep.Name)
			fmt.Println(color.RedString("\n%s failed: %v", ep.Name, err))
			if ctx.Err() != nil {
				bar.Abort(false)
				break
			}
		}
		bar.Increment()
	}
	p.Wait()

	if len(failed) > 0 {
		return fmt.Errorf("export incomplete, %d resources failed: %v", len(failed), failed)
	}
	fmt.Println(color.GreenString("\nExported %d records across %d resources\n", total, len(eps)))
	return nil
}

// exportResource streams one resource into <outDir>/<name>.ndjson.
func exportResource(ctx context.Context, f *fetcher.Fetcher, ep endpoint.Endpoint, outDir string, opts []fetcher.FetchOption) (int, error) {
	path := filepath.Join(outDir, ep.Name+".ndjson")
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)

	count := 0
	it := f.Fetch(ctx, ep, opts...)
	for it.Next() {
		if err := enc.Encode(it.Record()); err != nil {
			return count, fmt.Errorf("write record: %w", err)
		}
		count++
	}
	if err := it.Err(); err != nil {
		return count, err
	}
	return count, w.Flush()
}

func resolveEndpoints(names []string) ([]endpoint.Endpoint, error) {
	if len(names) == 0 {
		return endpoint.Catalog(), nil
	}
	eps := make([]endpoint.Endpoint, 0, len(names))
	for _, name := range names {
		ep, ok := endpoint.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown resource %q (see 'aktiva-extract resources')", name)
		}
		eps = append(eps, ep)
	}
	return eps, nil
}

func fetchOptions() ([]fetcher.FetchOption, error) {
	opts := []fetcher.FetchOption{
		fetcher.WithIntervalDays(cfg.Extract.IntervalDays),
	}
	if sinceFlag != "" {
		since, err := dates.ParseDate(sinceFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --since: %w", err)
		}
		opts = append(opts, fetcher.WithSince(since))
	}
	if untilFlag != "" {
		until, err := dates.ParseDate(untilFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --until: %w", err)
		}
		opts = append(opts, fetcher.WithUntil(until))
	}
	return opts, nil
}

// buildFetcher wires the client, the shared budget and the optional cache
// from configuration.
func buildFetcher() (*fetcher.Fetcher, func(), error) {
	ccfg := client.DefaultConfig(cfg.API.ID, cfg.API.Key)
	ccfg.BaseURL = cfg.API.BaseURL
	ccfg.Timeout = cfg.API.Timeout
	ccfg.RateLimit = cfg.Rate.Limit
	ccfg.RateWindow = cfg.Rate.Window
	ccfg.Retry.MaxAttempts = cfg.Retry.MaxAttempts
	ccfg.Retry.InitialBackoff = cfg.Retry.InitialBackoff
	ccfg.Retry.MaxBackoff = cfg.Retry.MaxBackoff

	cleanup := func() {}
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		ccfg.Redis = redisClient
		cleanup = func() { redisClient.Close() }
	}

	c, err := client.New(ccfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var fopts []fetcher.Option
	if cfg.Cache.Enabled && redisClient != nil {
		fopts = append(fopts, fetcher.WithCache(cache.NewManager(redisClient), cfg.Cache.TTL))
	}
	return fetcher.New(c, fopts...), cleanup, nil
}
