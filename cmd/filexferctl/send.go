package main

import (
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/metrics"
	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/netutil"
	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/session"
	"github.com/Pianissimo-3115/2501-col334-assignment4/transport/filexfer"
)

func newSendCmd(logger *logrus.Logger) *cobra.Command {
	var (
		inputPath   string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "send <server_ip> <server_port> <sws_bytes>",
		Short: "Serve a file to whichever peer sends the handshake request",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			serverIP := args[0]
			port, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid server_port %q: %w", args[1], err)
			}
			swsBytes, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid sws_bytes %q: %w", args[2], err)
			}

			sess := session.New("sender", logger)
			sess.Log.WithFields(logrus.Fields{
				"server_ip_informational": serverIP,
				"port":                    port,
				"sws_bytes":               swsBytes,
				"input":                   inputPath,
			}).Info("starting sender")

			fs := afero.NewOsFs()
			fileBytes, err := afero.ReadFile(fs, inputPath)
			if err != nil {
				return errors.Wrap(err, "reading input file")
			}

			conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: port})
			if err != nil {
				return errors.Wrap(err, "binding udp socket")
			}
			defer conn.Close()

			if err := netutil.TuneBuffers(conn, swsBytes); err != nil {
				sess.Log.WithError(err).Debug("socket buffer tuning failed, continuing with defaults")
			}

			stats := metrics.NewStats()
			stopMetrics := serveMetrics(metricsAddr, stats, sess, "sender", sess.Log)
			defer stopMetrics()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sender := filexfer.NewSender(conn, fileBytes, swsBytes, sess.Log, stats)
			go func() {
				<-ctx.Done()
				sender.Close()
			}()

			if err := sender.Run(); err != nil {
				sess.Log.WithError(err).Error("transfer failed")
				return err
			}
			sess.Log.Info("transfer complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "data.txt", "path to the file to serve")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve /metrics on, e.g. :9100 (disabled if empty)")
	return cmd
}

// serveMetrics starts an optional Prometheus HTTP endpoint and returns a
// function that shuts it down. A no-op shutdown is returned when addr is
// empty.
func serveMetrics(addr string, stats *metrics.Stats, sess *session.Session, role string, log *logrus.Entry) func() {
	if addr == "" {
		return func() {}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewCollector(stats, role, sess.ID))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Warn("metrics server stopped")
		}
	}()

	return func() {
		srv.Close()
	}
}
