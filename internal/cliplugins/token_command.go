package cliplugins

import (
	"fmt"

	"github.com/spf13/cobra"

	"tlscope/internal/identity"
)

// TokenCommand derives a discovery token from a seed, the same derivation
// the node performs at session start.
type TokenCommand struct {
	cmd     *cobra.Command
	deriver *identity.Deriver
}

func NewTokenCommand(deriver *identity.Deriver) *TokenCommand {
	return &TokenCommand{deriver: deriver}
}

func (t *TokenCommand) Meta() *cobra.Command {
	if t.cmd != nil {
		return t.cmd
	}
	t.cmd = &cobra.Command{
		Use:   "token",
		Short: "Derive a discovery token from a seed",
	}
	t.cmd.Flags().StringP("seed", "s", "", "seed string (required)")
	return t.cmd
}

func (t *TokenCommand) Execute(cmd *cobra.Command, args []string) error {
	seed, err := cmd.Flags().GetString("seed")
	if err != nil || seed == "" {
		return fmt.Errorf("flag --seed is required")
	}

	token, err := t.deriver.DeriveToken(seed)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
