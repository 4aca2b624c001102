package provision

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
)

// runner opens password-authenticated sessions to target hosts. It exists
// so tests can script stage outcomes without a network.
type runner interface {
	connect(ctx context.Context, ip, password string, timeout time.Duration) (session, error)
}

// session executes commands over one established connection.
type session interface {
	run(ctx context.Context, command string, timeout time.Duration) (string, error)
	close() error
}

// sshRunner is the real runner backed by golang.org/x/crypto/ssh.
type sshRunner struct{}

func (r *sshRunner) connect(ctx context.Context, ip, password string, timeout time.Duration) (session, error) {
	cfg := &ssh.ClientConfig{
		User: "root",
		Auth: []ssh.AuthMethod{ssh.Password(password)},
		// Target hosts are freshly installed servers with no recorded host
		// key yet.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
		Timeout:         timeout,
	}

	addr := net.JoinHostPort(ip, strconv.Itoa(sshPort))

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}

	return &sshSession{client: ssh.NewClient(sshConn, chans, reqs), addr: addr}, nil
}

type sshSession struct {
	client *ssh.Client
	addr   string
}

type runResult struct {
	output []byte
	err    error
}

// run executes one command in its own SSH session, bounding it by timeout
// and the context. A command that outlives the bound keeps running on the
// remote host; there is no mid-stage interrupt.
func (s *sshSession) run(ctx context.Context, command string, timeout time.Duration) (string, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("open session on %s: %w", s.addr, err)
	}
	defer func() { _ = sess.Close() }()

	done := make(chan runResult, 1)
	go func() {
		output, runErr := sess.CombinedOutput(command)
		done <- runResult{output: output, err: runErr}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return string(res.output), fmt.Errorf("command failed on %s: %w", s.addr, res.err)
		}
		return string(res.output), nil
	case <-timer.C:
		return "", fmt.Errorf("%w after %v on %s", errStageTimeout, timeout, s.addr)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *sshSession) close() error {
	return s.client.Close()
}
