package db

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"dev.hon.one/netcrawl/common"
	"dev.hon.one/netcrawl/util"
)

var clientWriteAPI influxdb2api.WriteAPI
var clientMutex sync.RWMutex

// StartClient - Start DB client. Does nothing if no DB URL is configured.
// Blocks until the DB is reachable or shutdown is requested.
func StartClient(waitGroup *sync.WaitGroup, shutdown *util.ShutdownChannelDistributor) {
	if common.GlobalConfig.InfluxDBURL == "" {
		log.Debug("No DB configured, not storing crawl entries")
		return
	}

	// Setup shutdown signal and waitgroup
	shutdownChannel := make(chan bool, 1)
	if !shutdown.AddListener(shutdownChannel) {
		return
	}
	waitGroup.Add(1)

	newClient := influxdb2.NewClient(common.GlobalConfig.InfluxDBURL, common.GlobalConfig.InfluxDBToken)

	cleanup := func() {
		clientMutex.Lock()
		localWriteAPI := clientWriteAPI
		clientWriteAPI = nil
		clientMutex.Unlock()
		if localWriteAPI != nil {
			localWriteAPI.Flush()
		}
		newClient.Close()
		log.Info("DB client stopped")
		waitGroup.Done()
	}

	// Wait for DB connection (true) to come up or for shutdown signal (false)
	if !waitForDBUp(newClient, shutdownChannel) {
		cleanup()
		return
	}

	// Setup async write API and error logging
	writeAPI := newClient.WriteAPI(common.GlobalConfig.InfluxDBOrg, common.GlobalConfig.InfluxDBBucket)
	writeAPIErrors := writeAPI.Errors()
	go func() {
		for err := range writeAPIErrors {
			log.WithError(err).Error("Failed to write to database")
		}
	}()
	clientMutex.Lock()
	clientWriteAPI = writeAPI
	clientMutex.Unlock()

	go func() {
		<-shutdownChannel
		cleanup()
	}()

	log.Info("DB client started: ", common.GlobalConfig.InfluxDBURL)
}

func waitForDBUp(dbClient influxdb2.Client, shutdownChannel <-chan bool) bool {
	checkHealth := func() bool {
		_, err := dbClient.Health(context.Background())
		if err != nil {
			log.WithError(err).Tracef("Database connection error")
			return false
		}
		return true
	}
	if checkHealth() {
		return true
	}
	log.Info("Waiting for database")
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if checkHealth() {
				return true
			}
		case <-shutdownChannel:
			return false
		}
	}
}

func writePoint(point *influxdb2write.Point) {
	clientMutex.RLock()
	defer clientMutex.RUnlock()
	if clientWriteAPI == nil {
		return
	}
	clientWriteAPI.WritePoint(point)
}

func visitPoint(entry common.VisitEntry) *influxdb2write.Point {
	return influxdb2.NewPointWithMeasurement("visit").
		AddTag("run_id", entry.RunID).
		AddTag("device", entry.Device).
		AddField("ip_address", entry.IPAddress).
		AddField("duration_seconds", entry.Duration.Seconds()).
		AddField("success", entry.Success).
		AddField("neighbor_count", entry.NeighborCount).
		SetTime(entry.Time)
}

func roundPoint(entry common.RoundEntry) *influxdb2write.Point {
	return influxdb2.NewPointWithMeasurement("round").
		AddTag("run_id", entry.RunID).
		AddField("depth", entry.Depth).
		AddField("visits", entry.Visits).
		AddField("discovered", entry.Discovered).
		AddField("frontier_size", entry.FrontierSize).
		AddField("duration_seconds", entry.Duration.Seconds()).
		AddField("anomalies", entry.Anomalies).
		AddField("cancelled", entry.Cancelled).
		SetTime(entry.Time)
}

// StoreVisitEntry - Attempt to store a visit entry in the DB.
func StoreVisitEntry(entry common.VisitEntry) {
	log.WithFields(log.Fields{
		"run_id":   entry.RunID,
		"device":   entry.Device,
		"time":     entry.Time,
		"duration": entry.Duration,
		"success":  entry.Success,
	}).Trace("Visit entry")
	writePoint(visitPoint(entry))
}

// StoreRoundEntry - Attempt to store a round entry in the DB.
func StoreRoundEntry(entry common.RoundEntry) {
	log.WithFields(log.Fields{
		"run_id":     entry.RunID,
		"depth":      entry.Depth,
		"visits":     entry.Visits,
		"discovered": entry.Discovered,
	}).Trace("Round entry")
	writePoint(roundPoint(entry))
}

// Observer - Crawl observer storing all entries in the DB.
type Observer struct{}

// ObserveVisit - Store a visit entry.
func (Observer) ObserveVisit(entry common.VisitEntry) {
	StoreVisitEntry(entry)
}

// ObserveRound - Store a round entry.
func (Observer) ObserveRound(entry common.RoundEntry) {
	StoreRoundEntry(entry)
}
