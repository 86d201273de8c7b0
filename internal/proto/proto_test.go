package proto

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/talon-framework/talon/internal/brute"
)

func TestHTTPBasicAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	attempt := HTTPBasicAttempt(srv.URL, 2*time.Second)

	if err := attempt(brute.Pair{User: "admin", Password: "hunter2"}); err != nil {
		t.Fatalf("valid pair: %v", err)
	}

	err := attempt(brute.Pair{User: "admin", Password: "wrong"})
	if !errors.Is(err, brute.ErrRejected) {
		t.Fatalf("bad pair: want ErrRejected, got %v", err)
	}
}

func TestHTTPBasicAttemptServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := HTTPBasicAttempt(srv.URL, 2*time.Second)(brute.Pair{User: "a", Password: "b"})
	if err == nil || errors.Is(err, brute.ErrRejected) {
		t.Fatalf("want fatal error on 500, got %v", err)
	}
}

// fakeFTP runs a minimal FTP login exchange on a local listener.
func fakeFTP(t *testing.T, user, pass string) (string, int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				fmt.Fprintf(c, "220 fake ftp ready\r\n")
				sc := bufio.NewScanner(c)
				var gotUser string
				for sc.Scan() {
					line := sc.Text()
					switch {
					case strings.HasPrefix(line, "USER "):
						gotUser = strings.TrimPrefix(line, "USER ")
						fmt.Fprintf(c, "331 password required\r\n")
					case strings.HasPrefix(line, "PASS "):
						if gotUser == user && strings.TrimPrefix(line, "PASS ") == pass {
							fmt.Fprintf(c, "230 login successful\r\n")
						} else {
							fmt.Fprintf(c, "530 login incorrect\r\n")
						}
					case line == "QUIT":
						fmt.Fprintf(c, "221 bye\r\n")
						return
					}
				}
			}(conn)
		}
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func TestFTPAttempt(t *testing.T) {
	host, port := fakeFTP(t, "ftpuser", "letmein")
	attempt := FTPAttempt(host, port, 2*time.Second)

	if err := attempt(brute.Pair{User: "ftpuser", Password: "letmein"}); err != nil {
		t.Fatalf("valid pair: %v", err)
	}

	err := attempt(brute.Pair{User: "ftpuser", Password: "nope"})
	if !errors.Is(err, brute.ErrRejected) {
		t.Fatalf("bad pair: want ErrRejected, got %v", err)
	}
}

func TestFTPAttemptDialFailure(t *testing.T) {
	err := FTPAttempt("127.0.0.1", 1, 500*time.Millisecond)(brute.Pair{User: "a", Password: "b"})
	if err == nil || errors.Is(err, brute.ErrRejected) {
		t.Fatalf("want fatal error on refused connection, got %v", err)
	}
}

func TestGrabBanner(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		fmt.Fprintf(conn, "SSH-2.0-OpenSSH_9.6\r\n")
		conn.Close()
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)

	banner, err := GrabBanner(host, port, "", 2*time.Second)
	if err != nil {
		t.Fatalf("GrabBanner: %v", err)
	}
	if banner != "SSH-2.0-OpenSSH_9.6" {
		t.Errorf("banner = %q", banner)
	}
}

func TestSSHRejectedClassification(t *testing.T) {
	cases := []struct {
		err  string
		want bool
	}{
		{"ssh: handshake failed: ssh: unable to authenticate, attempted methods [none password]", true},
		{"dial tcp 10.0.0.5:22: connect: connection refused", false},
		{"dial tcp 10.0.0.5:22: i/o timeout", false},
	}
	for _, tc := range cases {
		if got := sshRejected(errors.New(tc.err)); got != tc.want {
			t.Errorf("sshRejected(%q) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
