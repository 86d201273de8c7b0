package proto

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// GrabBanner connects to host:port, optionally sends a probe string, and
// returns the first line the service announces.
func GrabBanner(host string, port int, probe string, timeout time.Duration) (string, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return "", fmt.Errorf("dialing %s: %w", addr, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(timeout))

	if probe != "" {
		if _, err := conn.Write([]byte(probe + "\r\n")); err != nil {
			return "", fmt.Errorf("writing probe: %w", err)
		}
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading banner from %s: %w", addr, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
