package netutil

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// ProbePort attempts a single TCP dial to (ip, port) within timeout.
// Unlike a wait loop, this is a one-shot check: the caller decides whether
// an unreachable port is a warning or a hard failure.
func ProbePort(ctx context.Context, ip string, port int, timeout time.Duration) error {
	address := net.JoinHostPort(ip, strconv.Itoa(port))

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("port %d on %s is not reachable: %w", port, ip, err)
	}
	_ = conn.Close()
	return nil
}
