package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sketchmesh/sketchmesh/internal/relay"
)

var flagRelayAddr string

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run a rendezvous relay server",
	Long: `Run the stateless rendezvous relay that sessions use to find each other.

The relay only forwards connection setup traffic; board content travels
directly between peers and never passes through it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelay()
	},
}

func runRelay() error {
	hub := relay.NewHub()
	go hub.Run()

	srv := &http.Server{
		Addr:              flagRelayAddr,
		Handler:           relay.Routes(hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()
	slog.Info("relay listening", "addr", flagRelayAddr)

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("relay stopped")
	return nil
}

func init() {
	relayCmd.Flags().StringVarP(&flagRelayAddr, "addr", "a", ":8080", "Listen address")
	rootCmd.AddCommand(relayCmd)
}
