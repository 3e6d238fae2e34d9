// Command filexferctl is the reliable file-transfer endpoint: a single
// binary exposing "send" and "receive" subcommands that speak the
// sliding-window, SACK-acknowledged protocol implemented by
// transport/filexfer.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	logger := logrus.New()

	root := &cobra.Command{
		Use:           "filexferctl",
		Short:         "Reliable file transfer over UDP with sliding-window SACK",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		lvl, err := cmd.Flags().GetString("log-level")
		if err != nil {
			return err
		}
		parsed, err := logrus.ParseLevel(lvl)
		if err != nil {
			return err
		}
		logger.SetLevel(parsed)
		return nil
	}

	root.AddCommand(newSendCmd(logger))
	root.AddCommand(newReceiveCmd(logger))
	return root
}
