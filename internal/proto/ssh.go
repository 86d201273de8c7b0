// Package proto contains the protocol-specific collaborators that attempt a
// single credential pair against a target service. Each collaborator maps
// the wire outcome onto the engine's classification: nil for a valid pair,
// brute.ErrRejected for an explicit rejection, anything else is fatal for
// the run.
package proto

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/talon-framework/talon/internal/brute"
	"golang.org/x/crypto/ssh"
)

// SSHAttempt returns a collaborator that performs one SSH password
// authentication per pair. Each attempt uses a fresh connection.
func SSHAttempt(host string, port int, timeout time.Duration) brute.AttemptFunc {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	return func(p brute.Pair) error {
		cfg := &ssh.ClientConfig{
			User:            p.User,
			Auth:            []ssh.AuthMethod{ssh.Password(p.Password)},
			HostKeyCallback: ssh.InsecureIgnoreHostKey(),
			Timeout:         timeout,
		}

		client, err := ssh.Dial("tcp", addr, cfg)
		if err != nil {
			if sshRejected(err) {
				return fmt.Errorf("%s@%s: %w", p.User, addr, brute.ErrRejected)
			}
			return fmt.Errorf("ssh %s: %w", addr, err)
		}
		client.Close()
		return nil
	}
}

// sshRejected reports whether an ssh.Dial error is an authentication
// rejection rather than a transport failure. x/crypto/ssh does not expose a
// typed error for this, so the handshake message is matched.
func sshRejected(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "permission denied")
}
