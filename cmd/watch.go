package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/finphase/internal/cli"
	"github.com/theirongolddev/finphase/internal/notify"
	"github.com/theirongolddev/finphase/internal/pipeline"
	"github.com/theirongolddev/finphase/internal/watch"
)

var (
	flagWatchAddr         string
	flagWatchInterval     time.Duration
	flagWatchEventsBuffer int
	flagWatchNoNotify     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-evaluate plans as files change and publish signal events",
	Long: "Watch the plans directory, re-evaluate signals whenever a plan file changes, " +
		"and publish raised/cleared signals over HTTP/SSE and, when configured, AMQP.",
	RunE: runWatch,
}

var watchStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running watcher",
	RunE:  runWatchStatus,
}

func init() {
	watchCmd.PersistentFlags().StringVar(&flagWatchAddr, "addr", "127.0.0.1:8788", "HTTP listen address (empty disables the API)")
	watchCmd.Flags().DurationVar(&flagWatchInterval, "interval", time.Minute, "Fallback rescan interval")
	watchCmd.Flags().IntVar(&flagWatchEventsBuffer, "events-buffer", 200, "Max in-memory events retained")
	watchCmd.Flags().BoolVar(&flagWatchNoNotify, "no-notify", false, "Do not publish to the configured AMQP exchange")

	watchCmd.AddCommand(watchStatusCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, _ []string) error {
	cfg := appConfig()
	dir := plansDir()

	wcfg := watch.Config{
		PlansDir:     dir,
		Options:      parseOptions(),
		Engine:       newEngine(),
		UseCache:     !flagNoCache,
		CachePath:    pipeline.CachePath(),
		Interval:     flagWatchInterval,
		Addr:         flagWatchAddr,
		EventsBuffer: flagWatchEventsBuffer,
		Logger:       log.Logger,
	}

	if cfg.Notify.AMQPURL != "" && !flagWatchNoNotify {
		pub, err := notify.Dial(cfg.Notify.AMQPURL, cfg.Notify.Exchange, log.Logger)
		if err != nil {
			return fmt.Errorf("connecting to %s: %w", maskURL(cfg.Notify.AMQPURL), err)
		}
		defer func() { _ = pub.Close() }()
		wcfg.Publisher = pub
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "  Watching %s\n", dir)
	if wcfg.Addr != "" {
		fmt.Fprintf(os.Stderr, "  API: http://%s/v1/status\n", wcfg.Addr)
	}
	if wcfg.Publisher != nil {
		fmt.Fprintf(os.Stderr, "  Publishing to exchange %q\n", cfg.Notify.Exchange)
	}

	return watch.New(wcfg).Run(ctx)
}

func runWatchStatus(_ *cobra.Command, _ []string) error {
	if flagWatchAddr == "" {
		return fmt.Errorf("--addr is required")
	}
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get("http://" + flagWatchAddr + "/v1/status")
	if err != nil {
		return fmt.Errorf("watcher not reachable at %s: %w", flagWatchAddr, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("watcher returned %s", resp.Status)
	}

	var st watch.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return fmt.Errorf("decoding status: %w", err)
	}

	now := time.Now()
	sum := st.Summary
	rows := [][]string{
		{"Plans directory", st.PlansDir},
		{"Started", cli.FormatAge(st.StartedAt, now)},
		{"Last poll", cli.FormatAge(st.LastPollAt, now)},
		{"Polls", cli.FormatNumber(st.PollCount)},
		{"---"},
		{"Plans", cli.FormatNumber(int64(sum.Plans))},
		{"Forecast", cli.FormatAmount(sum.Forecast, appConfig().General.Currency)},
		{"Approved", cli.FormatAmount(sum.ApprovedBudget, appConfig().General.Currency)},
		{"Signals", fmt.Sprintf("%d critical, %d warning, %d info", sum.Critical, sum.Warning, sum.Info)},
		{"Unreconciled lines", cli.FormatNumber(int64(sum.Unreconciled))},
		{"Files skipped", cli.FormatNumber(int64(sum.FileErrors))},
		{"---"},
		{"Events retained", cli.FormatNumber(int64(st.EventCount))},
		{"Stream subscribers", cli.FormatNumber(int64(st.SubscriberCount))},
	}
	if st.LastError != "" {
		rows = append(rows, []string{"Last error", cli.RenderWarning(st.LastError)})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Watcher " + flagWatchAddr,
		Headers: []string{"Field", "Value"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
