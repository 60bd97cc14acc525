package api

import (
	"context"
	"net"
	"syscall"
)

// Listen opens the TCP listener with SO_REUSEPORT where the platform supports
// it, so a replacement process can bind the port before the old one exits.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var serr error
			if err := c.Control(func(fd uintptr) { serr = setReusePort(fd) }); err != nil {
				return err
			}
			return serr
		},
	}
	return lc.Listen(ctx, "tcp", addr)
}
