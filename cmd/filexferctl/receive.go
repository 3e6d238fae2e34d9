package main

import (
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/metrics"
	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/session"
	"github.com/Pianissimo-3115/2501-col334-assignment4/transport/filexfer"
)

func newReceiveCmd(logger *logrus.Logger) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "receive <server_ip> <server_port> [output_path]",
		Short: "Solicit a transfer from a server and reconstruct the file",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			serverIP := args[0]
			port, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid server_port %q: %w", args[1], err)
			}
			outputPath := "received_data.txt"
			if len(args) == 3 {
				outputPath = args[2]
			}

			sess := session.New("receiver", logger)
			sess.Log.WithFields(logrus.Fields{
				"server_ip":   serverIP,
				"port":        port,
				"output_path": outputPath,
			}).Info("starting receiver")

			peerAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(serverIP, args[1]))
			if err != nil {
				return errors.Wrap(err, "resolving server address")
			}

			conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
			if err != nil {
				return errors.Wrap(err, "binding udp socket")
			}
			defer conn.Close()

			fs := afero.NewOsFs()
			out, err := fs.Create(outputPath)
			if err != nil {
				return errors.Wrap(err, "creating output file")
			}
			defer out.Close()

			stats := metrics.NewStats()
			stopMetrics := serveMetrics(metricsAddr, stats, sess, "receiver", sess.Log)
			defer stopMetrics()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			receiver := filexfer.NewReceiver(conn, peerAddr, out, sess.Log, stats)
			go func() {
				<-ctx.Done()
				receiver.Close()
			}()

			result, err := receiver.Run()
			if err != nil {
				sess.Log.WithError(err).WithFields(logrus.Fields{
					"delivered": uint32(result.Delivered),
					"missing":   len(result.Missing),
				}).Error("transfer did not complete")
				return err
			}

			sess.Log.WithField("delivered_segments", uint32(result.Delivered)).Info("transfer complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve /metrics on, e.g. :9101 (disabled if empty)")
	return cmd
}
