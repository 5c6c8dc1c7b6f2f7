package scraping

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"dev.hon.one/netcrawl/common"
	"dev.hon.one/netcrawl/discovery"
)

const ciscoIOSNeighborsCommand = "show cdp neighbors detail"

// CiscoIOSConnector - Opens interactive SSH sessions to Cisco IOS devices.
type CiscoIOSConnector struct {
	Config      SSHConfig
	StripDomain bool
}

// NewCiscoIOSConnector - Create a connector from the global config and the configured credential.
func NewCiscoIOSConnector() (*CiscoIOSConnector, error) {
	credential, found := common.GlobalCredentials[common.GlobalConfig.CredentialID]
	if !found {
		return nil, fmt.Errorf("credential not found: %v", common.GlobalConfig.CredentialID)
	}
	return &CiscoIOSConnector{
		Config: SSHConfig{
			Credential:     credential,
			Port:           common.GlobalConfig.SSHPort,
			ConnectTimeout: common.GlobalConfig.ConnectTimeout(),
			CommandTimeout: common.GlobalConfig.CommandTimeout(),
		},
		StripDomain: common.GlobalConfig.StripDomain,
	}, nil
}

type ciscoIOSSession struct {
	address     string
	hostname    string
	stripDomain bool
	client      *ssh.Client
	session     *ssh.Session
	stdin       io.WriteCloser
	reader      *shellReader
}

// Connect - Log into the device and prepare the shell for scraping.
func (connector *CiscoIOSConnector) Connect(ctx context.Context, address string) (discovery.Session, error) {
	startTime := time.Now()
	client, err := openSSHClient(ctx, address, connector.Config)
	if err != nil {
		return nil, err
	}

	// Setup session
	session, err := client.NewSession()
	if err := checkDeviceFailure(address, "Failed to start session", err); err != nil {
		client.Close()
		return nil, err
	}
	result := &ciscoIOSSession{
		address:     address,
		stripDomain: connector.StripDomain,
		client:      client,
		session:     session,
	}
	if err := result.startShell(ctx, connector.Config); err != nil {
		result.Close()
		return nil, err
	}

	log.WithFields(log.Fields{
		"device_ip": address,
		"hostname":  result.hostname,
		"duration":  time.Since(startTime),
	}).Debug("Connected to device")
	return result, nil
}

func (session *ciscoIOSSession) startShell(ctx context.Context, config SSHConfig) error {
	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	err := session.session.RequestPty("vt100", 0, 512, modes)
	if err := checkDeviceFailure(session.address, "Failed to request PTY", err); err != nil {
		return err
	}
	session.stdin, err = session.session.StdinPipe()
	if err := checkDeviceFailure(session.address, "Failed to get STDIN pipe", err); err != nil {
		return err
	}
	stdoutReader, err := session.session.StdoutPipe()
	if err := checkDeviceFailure(session.address, "Failed to get STDOUT pipe", err); err != nil {
		return err
	}
	err = session.session.Shell()
	if err := checkDeviceFailure(session.address, "Failed to start shell", err); err != nil {
		return err
	}
	session.reader = newShellReader(session.address, stdoutReader, config.CommandTimeout)

	// Hostname comes from the prompt, after any banners
	_, prompt, err := session.reader.readUntilPrompt(ctx)
	if err := checkDeviceFailure(session.address, "Failed to get initial prompt", err); err != nil {
		return err
	}
	session.hostname = prompt[1]
	if session.stripDomain {
		session.hostname = StripDomain(session.hostname)
	}

	if prompt[2] == ">" && config.Credential.EnableSecret != "" {
		if err := session.enable(ctx, config.Credential.EnableSecret); err != nil {
			return err
		}
	}

	// Disable paging
	_, err = session.runCommand(ctx, "terminal length 0")
	if err := checkDeviceFailure(session.address, "Failed to disable paging", err); err != nil {
		return err
	}
	return nil
}

// enable - Enter privileged mode. Neighbors can be read without it, so a rejected secret is only logged.
func (session *ciscoIOSSession) enable(ctx context.Context, secret string) error {
	if _, err := io.WriteString(session.stdin, "enable\n"); err != nil {
		return checkDeviceFailure(session.address, "Failed to write to shell", err)
	}
	_, _, err := session.reader.readUntil(ctx, iosPasswordPromptRegex)
	if err := checkDeviceFailure(session.address, "Failed to get enable password prompt", err); err != nil {
		return err
	}
	if _, err := io.WriteString(session.stdin, secret+"\n"); err != nil {
		return checkDeviceFailure(session.address, "Failed to write to shell", err)
	}
	_, prompt, err := session.reader.readUntilPrompt(ctx)
	if err := checkDeviceFailure(session.address, "Failed to get prompt after enable", err); err != nil {
		return err
	}
	if prompt[2] != "#" {
		log.WithField("device_ip", session.address).Warn("Enable secret rejected, continuing unprivileged")
	}
	return nil
}

// runCommand - Send a command and collect its output, without the echoed command line.
func (session *ciscoIOSSession) runCommand(ctx context.Context, command string) ([]string, error) {
	log.WithFields(log.Fields{
		"device_ip": session.address,
		"command":   command,
	}).Trace("Running command")
	if _, err := io.WriteString(session.stdin, command+"\n"); err != nil {
		return nil, fmt.Errorf("failed to write to shell: %w", err)
	}
	lines, _, err := session.reader.readUntilPrompt(ctx)
	if err != nil {
		return nil, fmt.Errorf("command %q failed: %w", command, err)
	}
	if len(lines) > 0 && strings.HasSuffix(strings.TrimSpace(lines[0]), command) {
		lines = lines[1:]
	}
	return lines, nil
}

func (session *ciscoIOSSession) Hostname() string {
	return session.hostname
}

// Neighbors - Get the CDP neighbors of the device.
func (session *ciscoIOSSession) Neighbors(ctx context.Context) ([]common.NeighborRecord, error) {
	lines, err := session.runCommand(ctx, ciscoIOSNeighborsCommand)
	if err != nil {
		return nil, err
	}
	neighbors := ParseCDPNeighbors(lines, session.stripDomain)
	log.WithFields(log.Fields{
		"device_ip":      session.address,
		"hostname":       session.hostname,
		"neighbor_count": len(neighbors),
	}).Trace("Parsed CDP neighbors")
	return neighbors, nil
}

func (session *ciscoIOSSession) Close() error {
	if session.stdin != nil {
		io.WriteString(session.stdin, "exit\n")
	}
	if session.reader != nil {
		session.reader.stop()
	}
	session.session.Close()
	return session.client.Close()
}
