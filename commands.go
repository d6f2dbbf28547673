package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"hadoop_monitor/types"

	"github.com/google/logger"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the HTTP API",
		Long: `
Collect metrics and check cluster health on the configured intervals, store
every outcome and serve live and stored data over HTTP until interrupted.
	`,
		Args: cobra.NoArgs,
		RunE: serve,
	}
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	lifecycle := logger.Init("hadoop_monitor", true, cfg.Logging.SystemLog, ioutil.Discard)
	defer lifecycle.Close()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.master.Start(ctx); err != nil {
		return err
	}
	defer a.master.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           a.apiHandler().Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()
	lifecycle.Infof("hadoop_monitor started for cluster %s, listening on %s", cfg.ClusterName, server.Addr)

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	lifecycle.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newCollectCmd() *cobra.Command {
	var persist bool
	cmd := &cobra.Command{
		Use:   "collect [kind]",
		Short: "Collect metrics once and print them as JSON",
		Long: `
Run one collection of every enabled metric, or of the single kind given
(e.g. hdfs_capacity), and print the result. With --store the collection of
every enabled metric is also written to the configured store.
	`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if persist && len(args) > 0 {
				return fmt.Errorf("--store collects every enabled metric and takes no kind")
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if persist {
				return printJSON(cmd.OutOrStdout(), a.master.CollectOnce(cmd.Context()))
			}
			if len(args) == 0 {
				return printJSON(cmd.OutOrStdout(), a.watcher.CollectMetrics(cmd.Context()))
			}
			kind, err := types.ParseMetricKind(args[0])
			if err != nil {
				return err
			}
			report, err := a.watcher.Collect(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report.Snapshot())
		},
	}
	cmd.Flags().BoolVar(&persist, "store", false, "write the result to the configured store")
	return cmd
}

func newHealthCmd() *cobra.Command {
	var persist bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check every endpoint once and print the snapshot",
		Long: `
Check every configured endpoint once and print the snapshot. With --store the
snapshot is written as a CLUSTER_HEALTH record and unhealthy services are
notified like a scheduled check.
	`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			var snapshot types.HealthSnapshot
			if persist {
				snapshot = a.master.CheckHealthOnce(cmd.Context())
			} else {
				snapshot = a.watcher.CheckClusterHealth(cmd.Context())
			}
			if err := printJSON(cmd.OutOrStdout(), snapshot); err != nil {
				return err
			}
			if unhealthy := snapshot.UnhealthyServices(); len(unhealthy) > 0 {
				return fmt.Errorf("unhealthy services: %v", unhealthy)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&persist, "store", false, "write the snapshot to the configured store")
	return cmd
}

func newRecordsCmd() *cobra.Command {
	var (
		kindName string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List stored records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var kind types.MetricKind
			if kindName != "" {
				parsed, err := types.ParseMetricKind(kindName)
				if err != nil {
					return err
				}
				kind = parsed
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.store.ListRecent(cmd.Context(), kind, limit)
			if err != nil {
				return err
			}
			log.Debugf("found %d records", len(records))
			if records == nil {
				records = []*types.MetricRecord{}
			}
			return printJSON(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().StringVarP(&kindName, "kind", "k", "", "only list records of this kind")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of records, 0 for all")
	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
