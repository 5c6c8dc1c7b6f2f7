package db

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	influxdb2write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.hon.one/netcrawl/common"
	"dev.hon.one/netcrawl/util"
)

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestVisitPoint(t *testing.T) {
	line := influxdb2write.PointToLineProtocol(visitPoint(common.VisitEntry{
		RunID:         "run-1",
		Time:          testTime,
		Device:        "R1",
		IPAddress:     "10.0.0.1",
		Duration:      1500 * time.Millisecond,
		Success:       true,
		NeighborCount: 2,
	}), time.Nanosecond)

	assert.True(t, strings.HasPrefix(line, "visit,"))
	assert.Contains(t, line, "run_id=run-1")
	assert.Contains(t, line, "device=R1")
	assert.Contains(t, line, `ip_address="10.0.0.1"`)
	assert.Contains(t, line, "duration_seconds=1.5")
	assert.Contains(t, line, "neighbor_count=2i")
	assert.Contains(t, line, "success=true")
}

func TestRoundPoint(t *testing.T) {
	line := influxdb2write.PointToLineProtocol(roundPoint(common.RoundEntry{
		RunID:        "run-1",
		Time:         testTime,
		Depth:        2,
		Visits:       3,
		Discovered:   4,
		FrontierSize: 4,
		Cancelled:    true,
	}), time.Nanosecond)

	assert.True(t, strings.HasPrefix(line, "round,run_id=run-1 "))
	assert.Contains(t, line, "depth=2i")
	assert.Contains(t, line, "visits=3i")
	assert.Contains(t, line, "cancelled=true")
}

func TestStoreWithoutClient(t *testing.T) {
	// Nothing to write to, must not block or panic
	Observer{}.ObserveVisit(common.VisitEntry{RunID: "run-1", Device: "R1"})
	Observer{}.ObserveRound(common.RoundEntry{RunID: "run-1"})
}

func TestStartClientDisabled(t *testing.T) {
	common.GlobalConfig = common.DefaultConfig()
	shutdown := util.NewShutdownChannelDistributor(make(chan os.Signal))
	var waitGroup sync.WaitGroup

	StartClient(&waitGroup, shutdown)
	waitGroup.Wait()
}

func TestStartClientWritesEntries(t *testing.T) {
	var mutex sync.Mutex
	var written strings.Builder
	server := httptest.NewServer(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/health":
			response.Header().Set("Content-Type", "application/json")
			io.WriteString(response, `{"name":"influxdb","message":"ready for queries and writes","status":"pass","checks":[],"version":"2.7.0","commit":"test"}`)
		case "/api/v2/write":
			body, _ := io.ReadAll(request.Body)
			mutex.Lock()
			written.Write(body)
			mutex.Unlock()
			response.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(response, request)
		}
	}))
	defer server.Close()

	common.GlobalConfig = common.DefaultConfig()
	common.GlobalConfig.InfluxDBURL = server.URL
	common.GlobalConfig.InfluxDBOrg = "lab"
	defer func() {
		common.GlobalConfig = common.DefaultConfig()
	}()
	shutdown := util.NewShutdownChannelDistributor(make(chan os.Signal))
	var waitGroup sync.WaitGroup

	StartClient(&waitGroup, shutdown)
	Observer{}.ObserveVisit(common.VisitEntry{RunID: "run-1", Time: testTime, Device: "R1", IPAddress: "10.0.0.1", Success: true})
	Observer{}.ObserveRound(common.RoundEntry{RunID: "run-1", Time: testTime, Depth: 1, Visits: 1})
	shutdown.Shutdown()
	waitGroup.Wait()

	mutex.Lock()
	defer mutex.Unlock()
	require.NotEmpty(t, written.String())
	assert.Contains(t, written.String(), "visit,")
	assert.Contains(t, written.String(), "round,")
}
