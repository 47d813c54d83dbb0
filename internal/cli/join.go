package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
)

var ErrRoomNotFound = errors.New("room not found")

var (
	flagJoinKey  string
	flagJoinName string
	flagJoinID   string
)

var joinCmd = &cobra.Command{
	Use:   "join <room>",
	Short: "Join a room and chat from the terminal",
	Long: `Join a room as a text-only participant. Presence, chat and screen
share events are printed as they arrive; every line typed on stdin is sent
as a chat message.

Examples:
  huddlectl join standup --key s3cret --name alice
  HUDDLE_SERVER=https://huddle.example.com huddlectl join standup`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := serverURL(flagServer)
		if err != nil {
			return err
		}
		id := flagJoinID
		if id == "" {
			id = uuid.NewString()
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return Join(ctx, JoinOptions{
			URL:    roomURL(base, args[0], flagJoinKey),
			UserID: domain.UserID(id),
			Name:   flagJoinName,
			In:     os.Stdin,
			Out:    cmd.OutOrStdout(),
		})
	},
}

func init() {
	joinCmd.Flags().StringVar(&flagJoinKey, "key", "", "room key, required to open an empty room")
	joinCmd.Flags().StringVar(&flagJoinName, "name", "huddlectl", "display name")
	joinCmd.Flags().StringVar(&flagJoinID, "id", "", "user id (random UUID if empty)")
}

type JoinOptions struct {
	URL    string
	UserID domain.UserID
	Name   string
	In     io.Reader
	Out    io.Writer
}

// Join connects, announces the user and runs until the server closes the
// socket, ctx ends or In is exhausted.
func Join(ctx context.Context, opts JoinOptions) error {
	conn, _, err := websocket.Dial(ctx, opts.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", opts.URL, err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(16 << 20)

	hello, err := protocol.Marshal(protocol.JoinRequest{From: opts.UserID, Username: opts.Name})
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageBinary, hello); err != nil {
		return classify(err)
	}
	log.Debug().Str("module", "cli").Str("url", opts.URL).Str("user", string(opts.UserID)).Msg("joined")

	lines := make(chan string)
	if opts.In != nil {
		go func() {
			defer close(lines)
			sc := bufio.NewScanner(opts.In)
			for sc.Scan() {
				select {
				case lines <- sc.Text():
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	p := newPrinter(opts.Out, opts.UserID)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			_, data, err := conn.Read(gctx)
			if err != nil {
				return classify(err)
			}
			p.frame(data)
		}
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return conn.Close(websocket.StatusNormalClosure, "")
				}
				if line == "" {
					continue
				}
				frame, err := protocol.Marshal(protocol.Chat{
					From:      opts.UserID,
					SubType:   protocol.ChatText,
					Timestamp: float64(time.Now().UnixMilli()),
					Text:      line,
				})
				if err != nil {
					return err
				}
				if err := conn.Write(gctx, websocket.MessageBinary, frame); err != nil {
					return classify(err)
				}
			}
		}
	})
	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func classify(err error) error {
	switch websocket.CloseStatus(err) {
	case websocket.StatusCode(core.CloseRoomNotFound):
		return ErrRoomNotFound
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return nil
	case websocket.StatusPolicyViolation:
		return fmt.Errorf("disconnected by server: %w", err)
	}
	return err
}
