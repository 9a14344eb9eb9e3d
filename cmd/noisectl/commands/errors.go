package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opd-ai/noise-mobile-go/ffi"
)

func errorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "errors",
		Short: "Print the stable status code table",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Code  Meaning")
			for code := int(ffi.StatusOK); code <= int(ffi.StatusProtocolError); code++ {
				fmt.Printf("%4d  %s\n", code, ffi.StatusString(code))
			}
			return nil
		},
	}
}
