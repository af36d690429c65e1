package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sketchmesh/sketchmesh/internal/board"
	"github.com/sketchmesh/sketchmesh/internal/canvas"
	"github.com/sketchmesh/sketchmesh/internal/config"
	"github.com/sketchmesh/sketchmesh/internal/discovery"
	"github.com/sketchmesh/sketchmesh/internal/protocol"
	"github.com/sketchmesh/sketchmesh/internal/room"
	"github.com/sketchmesh/sketchmesh/internal/transport"
	"github.com/sketchmesh/sketchmesh/internal/ui"
)

var (
	flagJoinDomain   string
	flagJoinSTUN     string
	flagJoinTURN     string
	flagJoinTURNUser string
	flagJoinTURNPass string
	flagJoinInterval time.Duration
	flagJoinDeadline time.Duration
	flagJoinHistory  bool
	flagJoinNoUI     bool
)

var joinCmd = &cobra.Command{
	Use:     "join <address>",
	Aliases: []string{"j"},
	Short:   "Join the board shared at an address",
	Long: `Join the collaborative board that everyone using the same address shares.

The address can be any string the group agrees on; it is normalized, so
"My Design Doc" and "mydesigndoc" land on the same board.

Examples:
  sketchmesh join "https://example.com/design-doc"
  sketchmesh join team-standup
  sketchmesh join team-standup --history`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return joinBoard(args[0])
	},
}

func joinBoard(address string) error {
	cfg, err := config.Load(config.Options{
		Domain:            flagJoinDomain,
		STUNServer:        flagJoinSTUN,
		TURNServer:        flagJoinTURN,
		TURNUser:          flagJoinTURNUser,
		TURNPass:          flagJoinTURNPass,
		DiscoveryInterval: flagJoinInterval,
		DiscoveryDeadline: flagJoinDeadline,
		History:           flagJoinHistory,
	})
	if err != nil {
		return err
	}

	roomID := room.Derive(address)
	if roomID == room.Prefix {
		return fmt.Errorf("address %q has no usable characters", address)
	}

	identity := room.NewIdentity(roomID, time.Now(), cfg.Bucket, cfg.FanOut)
	slog.Info("joining board", "room", roomID, "session", identity.ID)

	var history *canvas.History
	if cfg.History {
		history = canvas.NewHistory()
	}

	eng := board.New(board.Params{
		Identity: identity,
		RoomID:   roomID,
		Endpoint: transport.New(identity, cfg),
		Renderer: logRenderer{},
		Strategy: discovery.TimeBucket{
			Bucket:   cfg.Bucket,
			Lookback: cfg.Lookback,
			FanOut:   cfg.FanOut,
		},
		DiscoveryInterval: cfg.DiscoveryInterval,
		DiscoveryDeadline: cfg.DiscoveryDeadline,
		CursorInterval:    cfg.CursorInterval,
		History:           history,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println()
	fmt.Println(ui.RoomBanner(address, roomID, identity.ID))
	fmt.Println()

	runErr := make(chan error, 1)
	go func() { runErr <- eng.Run(ctx) }()

	var view *ui.SessionUI
	if !flagJoinNoUI {
		view = ui.NewSessionUI(roomID, identity.ID)
		view.Start()
		go func() {
			for s := range eng.Updates() {
				view.Push(s)
			}
		}()
	}

	var quitChan <-chan struct{}
	if view != nil {
		quitChan = view.Quit()
	}

	got := false
	select {
	case <-ctx.Done():
	case <-quitChan:
	case err = <-runErr:
		got = true
	}

	// Best effort: once the engine has stopped this comes back empty.
	participants := eng.Participants()

	stop()
	if !got {
		err = <-runErr
	}
	if view != nil {
		view.Stop()
	}

	if err != nil {
		return err
	}

	fmt.Println()
	if len(participants) > 0 {
		ui.RenderParticipantTable(identity.ID, participants)
	}
	ui.PrintSuccessf("Left %s", roomID)
	return nil
}

// logRenderer is the headless drawing surface: replicated board activity goes
// to the structured log instead of pixels.
type logRenderer struct{}

func (logRenderer) DrawStroke(s protocol.Stroke) {
	slog.Debug("stroke", "from", s.UserID, "x", s.X, "y", s.Y, "kind", s.Type)
}

func (logRenderer) Clear() {
	slog.Info("canvas cleared")
}

func (logRenderer) MoveCursor(id string, x, y float64) {
	slog.Debug("cursor", "from", id, "x", x, "y", y)
}

func (logRenderer) RemoveCursor(id string) {
	slog.Debug("cursor gone", "from", id)
}

func init() {
	joinCmd.Flags().StringVarP(&flagJoinDomain, "domain", "d", "", "Relay server domain")
	joinCmd.Flags().StringVar(&flagJoinSTUN, "stun", "", "Custom STUN server URL")
	joinCmd.Flags().StringVar(&flagJoinTURN, "turn", "", "Custom TURN server URL")
	joinCmd.Flags().StringVar(&flagJoinTURNUser, "turn-user", "", "TURN server username")
	joinCmd.Flags().StringVar(&flagJoinTURNPass, "turn-pass", "", "TURN server password")
	joinCmd.Flags().DurationVar(&flagJoinInterval, "discovery-interval", 0, "Time between discovery sweeps")
	joinCmd.Flags().DurationVar(&flagJoinDeadline, "discovery-deadline", 0, "When to stop looking for new peers")
	joinCmd.Flags().BoolVar(&flagJoinHistory, "history", false, "Record strokes and replay them to late joiners")
	joinCmd.Flags().BoolVar(&flagJoinNoUI, "no-ui", false, "Disable the live session view")

	rootCmd.AddCommand(joinCmd)
}
