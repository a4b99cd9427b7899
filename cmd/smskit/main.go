package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spachava753/smskit/assist"
	"github.com/spachava753/smskit/internal/config"
	"github.com/spachava753/smskit/internal/httpapi"
	"github.com/spachava753/smskit/internal/logger"
	"github.com/spachava753/smskit/sms"
)

var (
	version    = "0.1.0"
	configPath string
	timeout    time.Duration
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "smskit",
		Short:        "Read and send text messages",
		Long:         "smskit queries an Android telephony database, an SMS Backup+ archive or a macOS Messages database and sends through an email-to-SMS gateway or Messages.app.",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file (yaml, json or toml)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 0, "per-operation deadline (overrides SMSKIT_TIMEOUT)")

	root.AddCommand(listCmd())
	root.AddCommand(sendCmd())
	root.AddCommand(contextCmd())
	root.AddCommand(serveCmd())
	return root
}

// setup loads config, builds the logger and wires the service.
func setup() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return newApp(cfg, log)
}

func listCmd() *cobra.Command {
	var (
		filter sms.Filter
		box    string
		count  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List messages, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()
			defer a.log.Sync()

			filter.Box = sms.Box(box)
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
			defer cancel()
			records, err := sms.Await(ctx, func(ctx context.Context) ([]sms.Record, error) {
				return a.svc.GetMessages(ctx, filter, count)
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			for _, r := range records {
				direction := "<-"
				if r.Type != 1 {
					direction = "->"
				}
				ts := time.UnixMilli(r.Date).Format(time.DateTime)
				fmt.Fprintf(out, "%s %s %s %s\n", ts, direction, r.Address, oneLine(r.Body))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&box, "box", string(sms.BoxInbox), "collection: inbox, sent or all")
	cmd.Flags().StringVar(&filter.Search, "search", "", "substring to match in the body")
	cmd.Flags().StringVar(&filter.Address, "address", "", "substring to match in the address")
	cmd.Flags().IntVarP(&count, "count", "n", assist.DefaultCount, "maximum messages (1-100)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <address> <body...>",
		Short: "Send a text message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()
			defer a.log.Sync()

			address, body := args[0], strings.Join(args[1:], " ")
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
			defer cancel()
			result, err := sms.Await(ctx, func(ctx context.Context) (sms.SendResult, error) {
				return a.svc.SendMessage(ctx, address, body)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			return nil
		},
	}
}

func contextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "context <prompt...>",
		Short: "Print a prompt with recent messages attached when it is about texting",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()
			defer a.log.Sync()

			prompt := strings.Join(args, " ")
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
			defer cancel()
			augmented, err := assist.Augment(ctx, awaitingReader{a.svc}, prompt, time.Local)
			if err != nil {
				a.log.Warn("reading messages for context failed", zap.Error(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), augmented)
			return nil
		},
	}
}

// awaitingReader applies the caller's deadline to GetMessages.
type awaitingReader struct {
	svc *sms.Service
}

func (r awaitingReader) GetMessages(ctx context.Context, filter sms.Filter, count int) ([]sms.Record, error) {
	return sms.Await(ctx, func(ctx context.Context) ([]sms.Record, error) {
		return r.svc.GetMessages(ctx, filter, count)
	})
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()
			defer a.log.Sync()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			router := httpapi.NewRouter(httpapi.Dependencies{
				Service:        a.svc,
				Metrics:        a.metrics,
				Logger:         a.log.Named("http"),
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
				Timeout:        a.cfg.Timeout,
			})
			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("listening", zap.String("addr", addr), zap.String("store", a.cfg.Store.Kind))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
