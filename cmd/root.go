package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omniquote-labs/omniquote/config"
)

func SetVersion(v, hash string) {
	config.SetBuildInfo(v, hash)
}

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "omniquote",
		Version: fmt.Sprintf("%s (%s)", config.Version, config.CommitHash),
	}

	cmd.AddCommand(serveCmd())

	return cmd
}
