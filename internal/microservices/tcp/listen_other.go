//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package tcp

import "net"

// listen falls back to the standard listener; the backlog is left to the OS.
func listen(addr string, _ int) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
