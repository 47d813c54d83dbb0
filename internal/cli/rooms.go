package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dkeye/Huddle/internal/core"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List live rooms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := serverURL(flagServer)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		rooms, err := fetchRooms(ctx, http.DefaultClient, base.String()+"/api/rooms")
		if err != nil {
			return err
		}
		renderRooms(cmd.OutOrStdout(), rooms)
		return nil
	},
}

func fetchRooms(ctx context.Context, client *http.Client, endpoint string) ([]core.RoomInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list rooms: %s", resp.Status)
	}
	var rooms []core.RoomInfo
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return rooms, nil
}

func renderRooms(w io.Writer, rooms []core.RoomInfo) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Room", "Connections", "Users", "Sharing"})
	for _, r := range rooms {
		sharer := "-"
		if r.Sharer != "" {
			sharer = string(r.Sharer)
		}
		t.AppendRow(table.Row{r.Name, r.MemberCount, r.UserCount, sharer})
	}
	t.AppendFooter(table.Row{"Total", len(rooms), "", ""})
	t.Render()
}
