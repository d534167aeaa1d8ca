package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dkeye/peercall/internal/config"
	"github.com/dkeye/peercall/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	v         = viper.New()
	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "peercall",
	Short: "One-to-one audio/video calls through a rendezvous broker",
	Long: `peercall places and receives calls by user identity. Both parties connect
to the same broker and session context; media flows directly between them.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadFrom(v)
		if err != nil {
			return err
		}
		cfg = c
		logCloser = logging.Setup(cfg.Log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("broker", "", "broker WebSocket URL")
	pf.String("identity", "", "local user identity")
	pf.String("context", "", "session context shared with the peer")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("record-dir", "", "directory recordings are written to")
	for key, flag := range map[string]string{
		"client.broker_url": "broker",
		"client.identity":   "identity",
		"client.context":    "context",
		"log.level":         "log-level",
		"call.record_dir":   "record-dir",
	} {
		_ = v.BindPFlag(key, pf.Lookup(flag))
	}

	rootCmd.AddCommand(dialCmd, listenCmd, exportCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("peercall")
		cancel()
		os.Exit(1)
	}
}
