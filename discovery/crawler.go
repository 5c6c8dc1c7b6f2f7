package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"dev.hon.one/netcrawl/common"
)

// DefaultMaxDepth - Default number of rounds after the seed round.
const DefaultMaxDepth = 16

// DefaultWorkers - Default number of concurrent device visits.
const DefaultWorkers = 4

// ErrNoSeed - Returned when a crawl is started without a seed address.
var ErrNoSeed = errors.New("no seed address")

// Outcome - How a crawl ended.
type Outcome string

// Crawl outcomes.
const (
	OutcomeComplete  Outcome = "complete"
	OutcomeTruncated Outcome = "truncated"
	OutcomeCancelled Outcome = "cancelled"
)

// Options - Crawler options. Zero values get defaults, except MaxDepth where zero means seed only.
type Options struct {
	MaxDepth  int
	Workers   int
	Filter    *NeighborFilter
	Observers []Observer
}

// Crawler - Breadth-first neighbor crawler.
// Each round visits the whole frontier concurrently, then a single reducer folds the
// results into the crawl state. Workers only ever append to the pending results.
type Crawler struct {
	connector Connector
	maxDepth  int
	workers   int
	filter    *NeighborFilter
	observers []Observer
}

// Result - Final state of a crawl.
type Result struct {
	RunID     string        `json:"run_id"`
	Seed      string        `json:"seed"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Outcome   Outcome       `json:"outcome"`
	StateSnapshot
	Topology Topology `json:"-"`
}

// NewCrawler - Create a crawler using the connector to reach devices.
func NewCrawler(connector Connector, options Options) *Crawler {
	if options.MaxDepth < 0 {
		options.MaxDepth = DefaultMaxDepth
	}
	if options.Workers <= 0 {
		options.Workers = DefaultWorkers
	}
	if options.Filter == nil {
		options.Filter = DefaultNeighborFilter()
	}
	return &Crawler{
		connector: connector,
		maxDepth:  options.MaxDepth,
		workers:   options.Workers,
		filter:    options.Filter,
		observers: options.Observers,
	}
}

// Run - Crawl the network starting at the seed device.
// Cancelling the context stops the crawl at the next round barrier, keeping everything
// visited so far. Device visits already in progress are allowed to finish.
func (crawler *Crawler) Run(ctx context.Context, seedIP string) (*Result, error) {
	if seedIP == "" {
		return nil, ErrNoSeed
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("crawl cancelled before start: %w", err)
	}

	runID := uuid.NewString()
	startTime := time.Now()
	state := newCrawlState()
	visitContext := context.WithoutCancel(ctx)
	log.WithFields(log.Fields{
		"run_id":    runID,
		"seed":      seedIP,
		"max_depth": crawler.maxDepth,
		"workers":   crawler.workers,
		"filter":    crawler.filter.String(),
	}).Info("Starting discovery")

	// Seed round
	roundStart := time.Now()
	crawler.visit(visitContext, runID, &state.pending, Target{IP: seedIP})
	crawler.observeRound(runID, state, state.reduce(), 1, roundStart, false)

	outcome := OutcomeComplete
	for len(state.frontier) > 0 {
		if ctx.Err() != nil {
			outcome = OutcomeCancelled
			break
		}
		if state.depth >= crawler.maxDepth {
			log.WithFields(log.Fields{
				"depth":         state.depth,
				"max_depth":     crawler.maxDepth,
				"frontier_size": len(state.frontier),
			}).Warn("Max depth reached, leaving remaining devices unvisited")
			outcome = OutcomeTruncated
			break
		}
		state.depth++

		roundStart = time.Now()
		visits, cancelled := crawler.runRound(ctx, visitContext, runID, state)
		crawler.observeRound(runID, state, state.reduce(), visits, roundStart, cancelled)
		if cancelled {
			outcome = OutcomeCancelled
			break
		}
	}
	if outcome == OutcomeCancelled {
		log.WithFields(log.Fields{
			"depth":         state.depth,
			"frontier_size": len(state.frontier),
		}).Warn("Discovery cancelled")
	}

	result := &Result{
		RunID:         runID,
		Seed:          seedIP,
		StartTime:     startTime,
		Duration:      time.Since(startTime),
		Outcome:       outcome,
		StateSnapshot: state.snapshot(),
	}
	result.Topology = BuildTopology(result.Data)
	log.WithFields(log.Fields{
		"run_id":     runID,
		"outcome":    outcome,
		"visited":    len(result.Visited),
		"failed":     len(result.Failed),
		"unvisited":  len(result.Unvisited),
		"depth":      result.Depth,
		"duration":   result.Duration,
		"node_count": len(result.Topology.Nodes),
		"link_count": len(result.Topology.Links),
	}).Info("Discovery finished")
	return result, nil
}

// runRound - Visit the current frontier with a bounded pool and wait for all workers.
// Returns the number of visits made and whether any queued target was skipped.
func (crawler *Crawler) runRound(ctx context.Context, visitContext context.Context, runID string, state *crawlState) (int, bool) {
	targets := state.frontierTargets()
	queue := make(chan Target, len(targets))
	for _, target := range targets {
		queue <- target
	}
	close(queue)

	workerCount := min(crawler.workers, len(targets))
	log.WithFields(log.Fields{
		"depth":   state.depth,
		"targets": len(targets),
		"workers": workerCount,
	}).Info("Starting discovery round")

	// Workers get the pending buffer only, the rest of the state belongs to the reducer
	pending := &state.pending
	var skipped atomic.Bool
	workers := pool.New().WithMaxGoroutines(workerCount)
	for i := 0; i < workerCount; i++ {
		workers.Go(func() {
			for target := range queue {
				if ctx.Err() != nil {
					skipped.Store(true)
					return
				}
				crawler.visit(visitContext, runID, pending, target)
			}
		})
	}
	workers.Wait()

	return pending.len(), skipped.Load()
}

// visit - Visit a single device and buffer the outcome. Never panics.
func (crawler *Crawler) visit(ctx context.Context, runID string, pending *pendingResults, target Target) {
	startTime := time.Now()
	result := visitResult{
		Target:    target,
		Key:       target.Key(),
		Neighbors: []common.NeighborRecord{},
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			log.WithFields(log.Fields{
				"device":    result.Key,
				"device_ip": target.IP,
			}).Errorf("Device visit panicked: %v", recovered)
			result.Neighbors = []common.NeighborRecord{}
			result.Failed = true
		}
		pending.add(result)
		crawler.observeVisit(common.VisitEntry{
			RunID:         runID,
			Time:          startTime,
			Device:        result.Key.String(),
			IPAddress:     target.IP,
			Duration:      time.Since(startTime),
			Success:       !result.Failed,
			NeighborCount: len(result.Neighbors),
		})
	}()

	log.WithFields(log.Fields{
		"device":    result.Key,
		"device_ip": target.IP,
	}).Info("Discovering device")
	session, err := crawler.connector.Connect(ctx, target.IP)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"device":   result.Key,
			"duration": time.Since(startTime),
		}).Warn("Could not connect to device")
		result.Failed = true
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.WithError(err).WithField("device", result.Key).Trace("Failed to close session")
		}
	}()

	result.Key = ResolveKey(target.IP, session.Hostname())
	neighbors, err := session.Neighbors(ctx)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"device":   result.Key,
			"duration": time.Since(startTime),
		}).Error("Could not retrieve neighbors")
		return
	}
	result.Neighbors = crawler.prepareNeighbors(result.Key, neighbors)

	log.WithFields(log.Fields{
		"device":         result.Key,
		"neighbor_count": len(result.Neighbors),
		"duration":       time.Since(startTime),
	}).Debug("Storing results for later processing")
}

// prepareNeighbors - Filter the raw neighbors, then drop records which cannot be crawled.
func (crawler *Crawler) prepareNeighbors(device DeviceKey, raw []common.NeighborRecord) []common.NeighborRecord {
	filtered := crawler.filter.Apply(raw)
	neighbors := make([]common.NeighborRecord, 0, len(filtered))
	for _, neighbor := range filtered {
		if err := neighbor.Validate(); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"device":   device,
				"neighbor": neighbor.Hostname,
			}).Warn("Dropping malformed neighbor")
			continue
		}
		neighbors = append(neighbors, neighbor)
	}
	return neighbors
}

func (crawler *Crawler) observeVisit(entry common.VisitEntry) {
	for _, observer := range crawler.observers {
		observer.ObserveVisit(entry)
	}
}

func (crawler *Crawler) observeRound(runID string, state *crawlState, stats reduceStats, visits int, startTime time.Time, cancelled bool) {
	entry := common.RoundEntry{
		RunID:        runID,
		Time:         startTime,
		Depth:        state.depth,
		Visits:       visits,
		Discovered:   stats.Discovered,
		FrontierSize: len(state.frontier),
		Duration:     time.Since(startTime),
		Anomalies:    stats.Anomalies,
		Cancelled:    cancelled,
	}
	log.WithFields(log.Fields{
		"depth":         entry.Depth,
		"visits":        entry.Visits,
		"discovered":    entry.Discovered,
		"frontier_size": entry.FrontierSize,
		"duration":      entry.Duration,
	}).Info("All results of current round have been processed")
	for _, observer := range crawler.observers {
		observer.ObserveRound(entry)
	}
}
