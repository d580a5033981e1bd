package cliplugins

import (
	"fmt"

	"github.com/spf13/cobra"

	"tlscope/internal/identity"
)

// KeygenCommand generates the RSA key pair reserved for future session
// establishment.
type KeygenCommand struct {
	cmd     *cobra.Command
	deriver *identity.Deriver
}

func NewKeygenCommand(deriver *identity.Deriver) *KeygenCommand {
	return &KeygenCommand{deriver: deriver}
}

func (k *KeygenCommand) Meta() *cobra.Command {
	if k.cmd != nil {
		return k.cmd
	}
	k.cmd = &cobra.Command{
		Use:   "keygen",
		Short: "Generate an RSA-2048 key pair",
	}
	return k.cmd
}

func (k *KeygenCommand) Execute(cmd *cobra.Command, args []string) error {
	priv, pub, err := k.deriver.GenerateKeyPair()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "private: %s\n", priv)
	fmt.Fprintf(cmd.OutOrStdout(), "public:  %s\n", pub)
	return nil
}
