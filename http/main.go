package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"dev.hon.one/netcrawl/common"
	"dev.hon.one/netcrawl/util"
)

// StartServer - Start HTTP server in the background. Does nothing if no endpoint is configured.
func StartServer(waitGroup *sync.WaitGroup, shutdown *util.ShutdownChannelDistributor, gatherer prometheus.Gatherer) {
	if common.GlobalConfig.HTTPEndpoint == "" {
		log.Debug("No HTTP endpoint configured, not serving metrics")
		return
	}
	shutdownChannel := make(chan bool, 1)
	if !shutdown.AddListener(shutdownChannel) {
		return
	}
	waitGroup.Add(1)

	// Configure
	server := &http.Server{
		Addr:              common.GlobalConfig.HTTPEndpoint,
		Handler:           newServeMux(gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run
	serverDone := make(chan struct{})
	go func() {
		defer waitGroup.Done()
		defer close(serverDone)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("HTTP server failed")
		}
		log.Info("HTTP server stopped")
	}()

	// Shutdown
	go func() {
		select {
		case <-shutdownChannel:
			shutdownContext, shutdownContextCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownContextCancel()
			server.Shutdown(shutdownContext)
		case <-serverDone:
		}
	}()

	log.Infof("HTTP server started: %v", common.GlobalConfig.HTTPEndpoint)
}

func newServeMux(gatherer prometheus.Gatherer) *http.ServeMux {
	metricsHandler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	mainServeMux := http.NewServeMux()
	mainServeMux.HandleFunc("/", handleOtherRequest)
	mainServeMux.HandleFunc("/metrics", func(response http.ResponseWriter, request *http.Request) {
		log.WithFields(log.Fields{
			"endpoint": "metrics",
			"client":   request.RemoteAddr,
			"url":      request.URL,
		}).Trace("Request")
		metricsHandler.ServeHTTP(response, request)
	})
	return mainServeMux
}

func handleOtherRequest(response http.ResponseWriter, request *http.Request) {
	if request.URL.Path == "/" {
		fmt.Fprintf(response, "%s version %s by %s.\n", common.AppName, common.AppVersion, common.AppAuthor)
		fmt.Fprintf(response, "\nPaths:\n")
		fmt.Fprintf(response, "- Metrics: /metrics\n")
	} else {
		http.Error(response, "404 - Page not found.\n", http.StatusNotFound)
	}
}
