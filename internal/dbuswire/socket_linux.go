//go:build linux

package dbuswire

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/sys/unix"
)

// socket is a raw AF_UNIX stream socket.
type socket struct {
	fd int
}

// Dial connects to the bus at addr.
func Dial(addr Address) (Transport, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("dbus: socket: %w", err)
	}
	name := addr.Path
	if addr.Abstract {
		name = "@" + name
	}
	for {
		err = unix.Connect(fd, &unix.SockaddrUnix{Name: name})
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("dbus: connect %s: %w", addr, err)
	}
	return &socket{fd: fd}, nil
}

// FromFD wraps an already connected stream socket.
func FromFD(fd int) Transport {
	return &socket{fd: fd}
}

func (s *socket) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := unix.Read(s.fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case err != nil:
			return 0, err
		case n == 0:
			return 0, io.EOF
		}
		return n, nil
	}
}

func (s *socket) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := unix.Write(s.fd, p[written:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

func (s *socket) WaitReadable(timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		ms := -1
		if !deadline.IsZero() {
			left := time.Until(deadline)
			if left <= 0 {
				return ErrTimeout
			}
			ms = int((left + time.Millisecond - 1) / time.Millisecond)
		}
		fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("dbus: poll: %w", err)
		}
		if n == 0 {
			return ErrTimeout
		}
		// POLLHUP and POLLERR also end the wait so the next read reports
		// the failure.
		return nil
	}
}

func (s *socket) Close() error {
	return unix.Close(s.fd)
}
