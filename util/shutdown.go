package util

import (
	"context"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ShutdownChannelDistributor - For letting multiple listeners receive the internal shutdown signal.
type ShutdownChannelDistributor struct {
	mutex          sync.Mutex
	hasShutdown    bool
	outputChannels []chan<- bool
}

// NewShutdownChannelDistributor - Create a distributor which shuts down once the input channel fires.
func NewShutdownChannelDistributor(input <-chan os.Signal) *ShutdownChannelDistributor {
	shutdown := &ShutdownChannelDistributor{}
	go func() {
		<-input
		shutdown.Shutdown()
	}()
	return shutdown
}

// AddListener - Add a channel to duplicate input to.
// Return false if the shutdown signal has already been sent.
// The channel should be buffered, the signal is sent without waiting for a receiver.
func (shutdown *ShutdownChannelDistributor) AddListener(output chan<- bool) bool {
	shutdown.mutex.Lock()
	defer shutdown.mutex.Unlock()
	if shutdown.hasShutdown {
		return false
	}
	shutdown.outputChannels = append(shutdown.outputChannels, output)
	return true
}

// Context - Derive a context which is cancelled on shutdown.
func (shutdown *ShutdownChannelDistributor) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	shutdownChannel := make(chan bool, 1)
	if !shutdown.AddListener(shutdownChannel) {
		cancel()
		return ctx, cancel
	}
	go func() {
		select {
		case <-shutdownChannel:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Shutdown - Send shutdown signal to all listeners. Later calls do nothing.
func (shutdown *ShutdownChannelDistributor) Shutdown() {
	shutdown.mutex.Lock()
	defer shutdown.mutex.Unlock()
	if shutdown.hasShutdown {
		return
	}
	shutdown.hasShutdown = true
	log.Infof("Sending shutdown signal to %v listeners", len(shutdown.outputChannels))
	for _, output := range shutdown.outputChannels {
		select {
		case output <- true:
		default:
		}
	}
}
