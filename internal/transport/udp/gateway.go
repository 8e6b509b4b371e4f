// Package udp implements the datagram gateway: best-effort sends and a
// deadline-polled receive loop that can never stall the orchestrator.
package udp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"
)

const (
	// MaxDatagram keeps payloads under a safe UDP MTU.
	MaxDatagram = 1400

	readBuffer   = 2048
	pollInterval = 500 * time.Millisecond
)

// Handler consumes inbound datagrams keyed by the sender's address.
type Handler func(addr string, data []byte)

// Gateway wraps a UDP socket. Datagram sockets support concurrent send and
// receive, so no locking guards the socket itself; the peer cache has its
// own.
type Gateway struct {
	conn *net.UDPConn

	mu    sync.RWMutex
	peers map[string]*net.UDPAddr
}

// Listen binds the gateway to a local address such as "127.0.0.1:9876".
func Listen(bind string) (*Gateway, error) {
	addr, err := net.ResolveUDPAddr("udp", bind)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", bind, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %q: %w", bind, err)
	}
	return &Gateway{conn: conn, peers: make(map[string]*net.UDPAddr)}, nil
}

func (g *Gateway) Addr() string { return g.conn.LocalAddr().String() }

func (g *Gateway) Close() error { return g.conn.Close() }

// Send is fire-and-forget: failures are logged and never abort the session.
func (g *Gateway) Send(addr string, payload []byte) {
	if len(payload) > MaxDatagram {
		log.Printf("oversized datagram for %s (%d bytes)", addr, len(payload))
	}
	udpAddr, err := g.resolve(addr)
	if err != nil {
		log.Printf("send to %s: %v", addr, err)
		return
	}
	if _, err := g.conn.WriteToUDP(payload, udpAddr); err != nil {
		log.Printf("send to %s: %v", addr, err)
	}
}

// Run reads datagrams until ctx is done, invoking handler for each one.
// Short read deadlines keep the loop responsive to cancellation.
func (g *Gateway) Run(ctx context.Context, handler Handler) error {
	buf := make([]byte, readBuffer)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := g.conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		n, raddr, err := g.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			log.Printf("receive: %v", err)
			continue
		}
		g.remember(raddr)
		data := make([]byte, n)
		copy(data, buf[:n])
		handler(raddr.String(), data)
	}
}

func (g *Gateway) resolve(addr string) (*net.UDPAddr, error) {
	g.mu.RLock()
	cached, ok := g.peers[addr]
	g.mu.RUnlock()
	if ok {
		return cached, nil
	}
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.peers[addr] = udpAddr
	g.mu.Unlock()
	return udpAddr, nil
}

func (g *Gateway) remember(addr *net.UDPAddr) {
	key := addr.String()
	g.mu.Lock()
	if _, ok := g.peers[key]; !ok {
		g.peers[key] = addr
	}
	g.mu.Unlock()
}
