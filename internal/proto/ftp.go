package proto

import (
	"fmt"
	"net"
	"net/textproto"
	"strconv"
	"time"

	"github.com/talon-framework/talon/internal/brute"
)

// FTP reply codes relevant to authentication.
const (
	ftpReadyCode     = 220
	ftpLoggedInCode  = 230
	ftpNeedPassCode  = 331
	ftpLoginFailCode = 530
)

// FTPAttempt returns a collaborator that performs one FTP USER/PASS login
// per pair on a fresh connection.
func FTPAttempt(host string, port int, timeout time.Duration) brute.AttemptFunc {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	return func(p brute.Pair) error {
		conn, err := net.DialTimeout("tcp", addr, timeout)
		if err != nil {
			return fmt.Errorf("ftp %s: %w", addr, err)
		}
		defer conn.Close()
		conn.SetDeadline(time.Now().Add(timeout))

		tp := textproto.NewConn(conn)

		if _, _, err := tp.ReadResponse(ftpReadyCode); err != nil {
			return fmt.Errorf("ftp greeting: %w", err)
		}

		if err := tp.PrintfLine("USER %s", p.User); err != nil {
			return fmt.Errorf("ftp USER: %w", err)
		}
		code, msg, err := tp.ReadResponse(0)
		if err != nil {
			return fmt.Errorf("ftp USER reply: %w", err)
		}
		switch code {
		case ftpLoggedInCode:
			quit(tp)
			return nil // anonymous-style login, password not requested
		case ftpNeedPassCode:
			// fall through to PASS
		case ftpLoginFailCode:
			return fmt.Errorf("%s@%s: %w", p.User, addr, brute.ErrRejected)
		default:
			return fmt.Errorf("ftp: unexpected USER reply %d %s", code, msg)
		}

		if err := tp.PrintfLine("PASS %s", p.Password); err != nil {
			return fmt.Errorf("ftp PASS: %w", err)
		}
		code, msg, err = tp.ReadResponse(0)
		if err != nil {
			return fmt.Errorf("ftp PASS reply: %w", err)
		}
		switch code {
		case ftpLoggedInCode:
			quit(tp)
			return nil
		case ftpLoginFailCode:
			return fmt.Errorf("%s@%s: %w", p.User, addr, brute.ErrRejected)
		default:
			return fmt.Errorf("ftp: unexpected PASS reply %d %s", code, msg)
		}
	}
}

// quit sends a best-effort QUIT; the connection closes regardless.
func quit(tp *textproto.Conn) {
	tp.PrintfLine("QUIT")
	tp.ReadResponse(0)
}
