// Package cli implements huddlectl, an operator client for a Huddle server.
package cli

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// DefaultServer is used when neither --server nor HUDDLE_SERVER is set.
const DefaultServer = "http://localhost:8080"

var (
	flagServer  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "huddlectl",
	Short: "Join Huddle rooms and inspect a running server",
	Long: `huddlectl talks to a Huddle relay server. It can join a room as a
text-only participant and list the rooms the server currently hosts.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "server base URL (env HUDDLE_SERVER)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(joinCmd, roomsCmd)
}

// Execute runs the command tree and exits non-zero on error.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// serverURL resolves the server address: flag, then env, then default.
func serverURL(flag string) (*url.URL, error) {
	raw := flag
	if raw == "" {
		raw = os.Getenv("HUDDLE_SERVER")
	}
	if raw == "" {
		raw = DefaultServer
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("server url %q: %w", raw, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u, nil
}

// roomURL builds the WebSocket URL for a room.
func roomURL(base *url.URL, room, key string) string {
	u := *base
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/room/" + room
	u.RawQuery = ""
	if key != "" {
		u.RawQuery = url.Values{"key": {key}}.Encode()
	}
	return u.String()
}
