package scraping

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"dev.hon.one/netcrawl/common"
)

// ErrConnect - Wrapped by all errors which happen before a shell is ready.
var ErrConnect = errors.New("failed to connect")

// SSHConfig - How to reach devices over SSH.
type SSHConfig struct {
	Credential     common.Credential
	Port           uint
	ConnectTimeout time.Duration
	CommandTimeout time.Duration
}

func checkDeviceFailure(address string, message string, err error) error {
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"device_ip": address,
		}).Tracef("Device error: %v", message)
		return fmt.Errorf("%w: %v: %v", ErrConnect, message, err)
	}
	return nil
}

func sshAuthMethods(credential common.Credential) ([]ssh.AuthMethod, error) {
	authMethods := make([]ssh.AuthMethod, 0)
	if credential.Password != "" {
		authMethods = append(authMethods, ssh.Password(credential.Password))
		// Many network devices only offer keyboard-interactive
		authMethods = append(authMethods, ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
			answers := make([]string, len(questions))
			for i := range answers {
				answers[i] = credential.Password
			}
			return answers, nil
		}))
	}
	if credential.PrivateKeyPath != "" {
		privkey, err := os.ReadFile(credential.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read SSH private key %v: %w", credential.PrivateKeyPath, err)
		}
		signer, err := ssh.ParsePrivateKey(privkey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse SSH private key %v: %w", credential.PrivateKeyPath, err)
		}
		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}
	return authMethods, nil
}

// openSSHClient - Dial and authenticate, bounded by the connect timeout.
func openSSHClient(ctx context.Context, address string, config SSHConfig) (*ssh.Client, error) {
	authMethods, err := sshAuthMethods(config.Credential)
	if err := checkDeviceFailure(address, "Invalid credential", err); err != nil {
		return nil, err
	}
	sshConfig := ssh.ClientConfig{
		User:            config.Credential.Username,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Auth:            authMethods,
		Timeout:         config.ConnectTimeout,
	}
	// Old IOS images only speak legacy algorithms
	sshConfig.KeyExchanges = append(sshConfig.KeyExchanges,
		"curve25519-sha256", "curve25519-sha256@libssh.org", "ecdh-sha2-nistp256",
		"diffie-hellman-group14-sha256", "diffie-hellman-group14-sha1", "diffie-hellman-group1-sha1")

	// Build full address
	port := uint(22)
	if config.Port > 0 {
		port = config.Port
	}
	fullAddress := net.JoinHostPort(address, strconv.FormatUint(uint64(port), 10))

	// Open connection
	dialContext, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()
	var dialer net.Dialer
	conn, err := dialer.DialContext(dialContext, "tcp", fullAddress)
	if err := checkDeviceFailure(address, "Failed to open TCP connection", err); err != nil {
		return nil, err
	}
	if deadline, ok := dialContext.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	sshConn, channels, requests, err := ssh.NewClientConn(conn, fullAddress, &sshConfig)
	if err := checkDeviceFailure(address, "Failed SSH handshake", err); err != nil {
		conn.Close()
		return nil, err
	}
	conn.SetDeadline(time.Time{})

	return ssh.NewClient(sshConn, channels, requests), nil
}
