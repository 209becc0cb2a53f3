// Package main provides the taja-digest CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/taja-digest/internal/config"
	"github.com/Adda-Baaj/taja-digest/internal/logger"
	"github.com/Adda-Baaj/taja-digest/internal/notifier"
	"github.com/Adda-Baaj/taja-digest/pkg/dedup"
	"github.com/Adda-Baaj/taja-digest/pkg/urlnorm"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd creates the root command.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "taja-digest",
		Short:         "Post a digest of new feed articles to a chat webhook",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.SetVersionTemplate("taja-digest version {{.Version}}\n")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newNormalizeCmd())

	return rootCmd
}

// newRunCmd runs one digest cycle.
func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch feeds, build the digest and send it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if cfg.Run.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Run.Timeout)
				defer cancel()
			}

			n, cleanup, err := notifier.Bootstrap(ctx, cfg, log)
			if err != nil {
				log.ErrorObj("bootstrap failed", "bootstrap_error", map[string]any{"error": err.Error()})
				return err
			}
			defer func() {
				if err := cleanup(); err != nil {
					log.WarnObj("dedup store close failed", "dedup_close_error", map[string]any{"error": err.Error()})
				}
			}()

			out, err := n.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %s message (event %s)\n", out.Kind, out.EventID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (default ./config.yaml)")
	return cmd
}

// newNormalizeCmd prints the normalized form and dedup key of each URL. With
// --bolt it also reports whether the URL is registered in a local store.
func newNormalizeCmd() *cobra.Command {
	var boltPath string

	cmd := &cobra.Command{
		Use:   "normalize <url>...",
		Short: "Print the normalized URL and dedup key for each argument",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var store *dedup.BoltStore
			if boltPath != "" {
				var err error
				store, err = dedup.OpenBolt(boltPath, nil)
				if err != nil {
					return err
				}
				defer store.Close()
			}

			out := cmd.OutOrStdout()
			for _, raw := range args {
				if !urlnorm.IsValid(raw) {
					fmt.Fprintf(out, "%s\tinvalid\n", raw)
					continue
				}
				normalized, err := urlnorm.Normalize(raw)
				if err != nil {
					return err
				}
				line := fmt.Sprintf("%s\t%s\t%s", raw, normalized, dedup.Key(normalized))
				if store != nil {
					rec, ok, err := store.Lookup(normalized)
					if err != nil {
						return err
					}
					if ok {
						line += "\tregistered until " + rec.ExpiresAt.UTC().Format(time.RFC3339)
					} else {
						line += "\tnew"
					}
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&boltPath, "bolt", "", "bbolt dedup file to check registrations against")
	return cmd
}
