package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opd-ai/noise-mobile-go/crypto"
	"github.com/opd-ai/noise-mobile-go/keystore"
)

func keygenCmd() *cobra.Command {
	var (
		id    string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an identity keypair into the key store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("identity name required (--id)")
			}
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}

			store, err := keystore.NewFileKeyStore(storeDir, []byte(passphrase))
			if err != nil {
				return err
			}
			defer store.Close()

			if !force {
				exists, err := store.HasIdentity(id)
				if err != nil {
					return err
				}
				if exists {
					return fmt.Errorf("identity %q already exists (use --force to replace)", id)
				}
			}

			pair, err := crypto.GenerateKeyPair()
			if err != nil {
				return err
			}
			defer crypto.WipeKeyPair(pair)

			if err := store.StoreIdentity(id, pair.Private[:]); err != nil {
				return err
			}

			fmt.Printf("Identity %q stored in %s\n", id, storeDir)
			fmt.Printf("Public key: %x\n", pair.Public)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "name for the generated identity")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing identity")
	return cmd
}
