package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Totktonada/vk-messages-backup/internal/config"
	"github.com/Totktonada/vk-messages-backup/internal/logger"
	"github.com/Totktonada/vk-messages-backup/internal/syncer"
	"github.com/Totktonada/vk-messages-backup/internal/vkapi"
)

const serviceName = "vk-messages-backup"

type globalOptions struct {
	quiet       bool
	debug       bool
	jsonLogs    bool
	configPath  string
	storageDir  string
	chatlogsDir string
	metricsFile string
}

func main() {
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Stack().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
// Without a subcommand it runs a backup.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Incrementally back up VK private messages and render them as text",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd.ErrOrStderr(), opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMetrics(opts, func() error { return runBackup(cmd.Context(), opts) })
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "Report only warnings and errors")
	pf.BoolVarP(&opts.debug, "debug", "d", false, "Enable verbose debug output, including HTTP dumps")
	pf.BoolVar(&opts.jsonLogs, "log-json", false, "Emit JSON log lines instead of plain text")
	pf.StringVar(&opts.configPath, "config", "", "Config file (default: first of the standard locations)")
	pf.StringVar(&opts.storageDir, "storage", "./storage", "Directory with raw messages and users")
	pf.StringVar(&opts.chatlogsDir, "chatlogs", "./chatlogs", "Directory for rendered transcripts")
	pf.StringVar(&opts.metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file")

	rootCmd.AddCommand(newBackupCmd(opts))
	rootCmd.AddCommand(newRenderCmd(opts))

	return rootCmd
}

func newBackupCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Fetch new messages, save them and render transcripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMetrics(opts, func() error { return runBackup(cmd.Context(), opts) })
		},
	}
}

func newRenderCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Render transcripts from local storage without network access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMetrics(opts, func() error { return runRender(opts) })
		},
	}
}

func setupLogging(w io.Writer, opts *globalOptions) {
	var l zerolog.Logger
	if opts.jsonLogs {
		l = logger.New(w, serviceName)
	} else {
		l = logger.NewConsole(w)
	}
	zerolog.SetGlobalLevel(logger.Level(opts.quiet, opts.debug))
	log.Logger = l.With().Str("run_id", uuid.NewString()).Logger()
	log.Debug().Msg("debug logging enabled")
}

func runBackup(ctx context.Context, opts *globalOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateBackup(); err != nil {
		return err
	}

	client, err := vkapi.New(cfg.APIURL, cfg.AccessToken,
		vkapi.WithVersion(cfg.APIVersion),
		vkapi.WithHTTPTimeout(cfg.HTTPTimeout),
		vkapi.WithRequestInterval(cfg.RequestInterval),
		vkapi.WithRetry(cfg.MaxAttempts, cfg.BaseBackoff, cfg.MaxBackoff),
		vkapi.WithPageSizes(cfg.HistoryPageSize, cfg.ConversationsPageSize, cfg.UsersChunkSize),
		vkapi.WithDebugLogging(opts.debug),
	)
	if err != nil {
		return err
	}

	res, err := syncer.New(client, syncer.Options{
		StorageDir:  opts.storageDir,
		ChatlogsDir: opts.chatlogsDir,
		OwnerID:     cfg.UserID,
	}).Run(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Int("conversations", res.Conversations).
		Int("new_messages", res.NewMessages).
		Int("new_users", res.NewUsers).
		Int("dialogs", res.Dialogs).
		Int("messages", res.Messages).
		Msg("backup finished")
	return nil
}

func runRender(opts *globalOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateRender(); err != nil {
		return err
	}
	return syncer.RenderLocal(syncer.Options{
		StorageDir:  opts.storageDir,
		ChatlogsDir: opts.chatlogsDir,
		OwnerID:     cfg.UserID,
	})
}

// withMetrics runs fn and then, if requested, dumps the default registry.
// Metrics are written for failed runs too.
func withMetrics(opts *globalOptions, fn func() error) error {
	runErr := fn()
	if opts.metricsFile == "" {
		return runErr
	}
	if err := prometheus.WriteToTextfile(opts.metricsFile, prometheus.DefaultGatherer); err != nil {
		if runErr != nil {
			log.Warn().Err(err).Str("file", opts.metricsFile).Msg("failed to write metrics")
			return runErr
		}
		return fmt.Errorf("write metrics: %w", err)
	}
	return runErr
}
