package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dev.hon.one/netcrawl/common"
	"dev.hon.one/netcrawl/db"
	"dev.hon.one/netcrawl/discovery"
	"dev.hon.one/netcrawl/http"
	"dev.hon.one/netcrawl/scraping"
	"dev.hon.one/netcrawl/util"
)

var errInvalidConfig = errors.New("invalid config")

func newDiscoverCmd() *cobra.Command {
	var seed string
	var maxDepth int
	var workers int
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Crawl the network from a seed device and save the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadSettings(); err != nil {
				return err
			}
			if cmd.Flags().Changed("max-depth") {
				common.GlobalConfig.MaxDepth = maxDepth
			}
			if cmd.Flags().Changed("workers") {
				common.GlobalConfig.Workers = workers
			}
			if !common.ValidateConfig(common.GlobalConfig) {
				return errInvalidConfig
			}
			return runDiscovery(cmd.Context(), seed)
		},
	}
	cmd.Flags().StringVarP(&seed, "seed", "s", "", "IP address of the first device to visit.")
	cmd.Flags().IntVar(&maxDepth, "max-depth", discovery.DefaultMaxDepth, "Rounds to crawl after the seed device.")
	cmd.Flags().IntVarP(&workers, "workers", "w", discovery.DefaultWorkers, "Devices to visit concurrently.")
	cmd.MarkFlagRequired("seed")
	return cmd
}

func loadSettings() error {
	log.Infof("Starting %v version %v by %v", common.AppName, common.AppVersion, common.AppAuthor)
	if !common.LoadConfig(*configPath) {
		return errInvalidConfig
	}
	if !common.LoadCredentials() {
		return fmt.Errorf("%w: failed to load credentials", errInvalidConfig)
	}
	return nil
}

func runDiscovery(parent context.Context, seed string) error {
	if parent == nil {
		parent = context.Background()
	}

	// Setup internal shutdown mechanism
	shutdownChannel := make(chan os.Signal, 1)
	signal.Notify(shutdownChannel, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownChannel)
	shutdown := util.NewShutdownChannelDistributor(shutdownChannel)
	ctx, cancel := shutdown.Context(parent)
	defer cancel()

	// Run internal services in background
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	util.NewExporterMetric(registry, common.PrometheusNamespace, common.AppVersion)
	metrics := discovery.NewMetrics(registry)
	var waitGroup sync.WaitGroup
	http.StartServer(&waitGroup, shutdown, registry)
	db.StartClient(&waitGroup, shutdown)

	// Wait for internal services to finish, also on failure
	defer func() {
		shutdown.Shutdown()
		waitGroup.Wait()
	}()

	connector, err := scraping.NewCiscoIOSConnector()
	if err != nil {
		return err
	}
	crawler := discovery.NewCrawler(connector, discovery.Options{
		MaxDepth:  common.GlobalConfig.MaxDepth,
		Workers:   common.GlobalConfig.Workers,
		Filter:    discovery.NewNeighborFilter(common.GlobalConfig.NeighborFilter),
		Observers: []discovery.Observer{metrics, db.Observer{}},
	})
	result, err := crawler.Run(ctx, seed)
	if err != nil {
		return err
	}

	writer := &util.JSONSnapshotWriter{
		Directory: common.GlobalConfig.OutputDirectory,
		Timestamp: result.StartTime,
	}
	paths, err := result.Persist(writer)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"outcome":    result.Outcome,
		"components": len(result.Topology.Components()),
		"files":      paths,
	}).Info("Discovery saved")
	return nil
}
