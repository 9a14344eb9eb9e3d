package commands

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	storeDir   string
	passphrase string
	verbose    bool
)

func Execute() error {
	root := &cobra.Command{
		Use:           "noisectl",
		Short:         "Inspect and exercise the Noise session boundary",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			if storeDir == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				storeDir = filepath.Join(dir, ".noisectl")
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&storeDir, "dir", "", "key store directory (default ~/.noisectl)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the key store")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	root.AddCommand(keygenCmd(), demoCmd(), errorsCmd())
	return root.Execute()
}
