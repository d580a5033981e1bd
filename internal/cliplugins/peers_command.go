package cliplugins

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tlscope/internal/formatting"
	"tlscope/internal/storage/peercache"
)

// PeersCommand dumps the last-seen peer cache written by the discovery
// loop.
type PeersCommand struct {
	cmd *cobra.Command
}

func NewPeersCommand() *PeersCommand {
	return &PeersCommand{}
}

func (p *PeersCommand) Meta() *cobra.Command {
	if p.cmd != nil {
		return p.cmd
	}
	p.cmd = &cobra.Command{
		Use:   "peers",
		Short: "Show last seen peers from the cache",
	}
	p.cmd.Flags().StringP("cache", "c", "data/peers.db", "peer cache path")
	return p.cmd
}

func (p *PeersCommand) Execute(cmd *cobra.Command, args []string) error {
	path, err := cmd.Flags().GetString("cache")
	if err != nil || path == "" {
		return fmt.Errorf("flag --cache is required")
	}

	cache, err := peercache.New(peercache.Config{Path: path})
	if err != nil {
		return fmt.Errorf("open peer cache: %w", err)
	}
	defer cache.Close()

	records, err := cache.All()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No peers seen yet.")
		return nil
	}

	peers := make(map[string]any, len(records))
	for _, rec := range records {
		peers[rec.Endpoint] = map[string]any{
			"token":     rec.Token,
			"last seen": rec.LastSeen.Format(time.RFC3339),
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), formatting.Tree(peers, ""))
	return nil
}
