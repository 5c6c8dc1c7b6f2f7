package scraping

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrCommandTimeout - Returned when the device does not return to its prompt in time.
var ErrCommandTimeout = errors.New("command timed out")

var errShellClosed = errors.New("shell closed")

// Matches a device prompt, like "R1>" or "SW1#".
var iosPromptRegex = regexp.MustCompile(`^([A-Za-z0-9][\w.\-/:]*)(>|#) ?$`)
var iosPasswordPromptRegex = regexp.MustCompile(`^[Pp]assword: ?$`)

type outputReaderStatus int

const (
	outputReaderOK outputReaderStatus = iota
	outputReaderDone
	outputReaderError
)

type outputReaderResult struct {
	Data   string
	Status outputReaderStatus
	Err    error
}

// shellReader - Reads an interactive shell in the background and splits it on prompts.
// Prompts are not newline terminated, so output is matched on the trailing partial line.
type shellReader struct {
	address  string
	output   <-chan outputReaderResult
	done     chan struct{}
	stopOnce sync.Once
	pending  string
	timeout  time.Duration
}

func newShellReader(address string, reader io.Reader, timeout time.Duration) *shellReader {
	done := make(chan struct{})
	return &shellReader{
		address: address,
		output:  followShellOutput(address, reader, done),
		done:    done,
		timeout: timeout,
	}
}

// followShellOutput - Reads the stream in the background and returns a channel for its chunks.
func followShellOutput(address string, reader io.Reader, done <-chan struct{}) <-chan outputReaderResult {
	outChannel := make(chan outputReaderResult, 256)

	send := func(result outputReaderResult) bool {
		select {
		case outChannel <- result:
			return true
		case <-done:
			return false
		}
	}

	go func() {
		buffer := make([]byte, 4096)
		for {
			numBytes, err := reader.Read(buffer)
			if numBytes > 0 {
				if !send(outputReaderResult{Data: string(buffer[:numBytes])}) {
					return
				}
			}
			if err == io.EOF {
				send(outputReaderResult{Status: outputReaderDone})
				return
			} else if err != nil {
				log.WithError(err).WithField("device_ip", address).Trace("Failed to read from shell")
				send(outputReaderResult{Status: outputReaderError, Err: err})
				return
			}
		}
	}()

	return outChannel
}

func (reader *shellReader) stop() {
	reader.stopOnce.Do(func() {
		close(reader.done)
	})
}

// readUntilPrompt - Collect complete output lines until the device prompt shows up.
// Returns the lines before the prompt and the prompt itself.
func (reader *shellReader) readUntilPrompt(ctx context.Context) ([]string, []string, error) {
	return reader.readUntil(ctx, iosPromptRegex)
}

func (reader *shellReader) readUntil(ctx context.Context, pattern *regexp.Regexp) ([]string, []string, error) {
	timer := time.NewTimer(reader.timeout)
	defer timer.Stop()
	for {
		if lines, match, ok := reader.takeUntil(pattern); ok {
			return lines, match, nil
		}
		select {
		case result := <-reader.output:
			switch result.Status {
			case outputReaderDone:
				return nil, nil, errShellClosed
			case outputReaderError:
				return nil, nil, fmt.Errorf("failed to read from shell: %w", result.Err)
			}
			reader.pending += strings.ReplaceAll(result.Data, "\r", "")
		case <-timer.C:
			log.WithFields(log.Fields{
				"device_ip": reader.address,
				"timeout":   reader.timeout,
			}).Trace("Timed out waiting for prompt")
			return nil, nil, ErrCommandTimeout
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
}

func (reader *shellReader) takeUntil(pattern *regexp.Regexp) ([]string, []string, bool) {
	lines := strings.Split(reader.pending, "\n")
	last := lines[len(lines)-1]
	match := pattern.FindStringSubmatch(last)
	if match == nil {
		return nil, nil, false
	}
	reader.pending = ""
	return lines[:len(lines)-1], match, true
}
