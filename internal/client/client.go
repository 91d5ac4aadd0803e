package client

import (
	"context"
	"fmt"
	"net"
	"time"

	gonet "github.com/lightsout/server/internal/net"
	"github.com/lightsout/server/internal/protocol"
)

// Client is a blocking request/reply connection to a game server: every
// input sent is answered with one frame.
type Client struct {
	conn     net.Conn
	maxFrame int

	// Welcome is the player record received on connect.
	Welcome protocol.Record
}

// Dial connects and waits for the welcome record.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c := &Client{conn: conn, maxFrame: gonet.DefaultMaxFrame}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}
	payload, err := gonet.ReadFrame(conn, c.maxFrame)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	c.Welcome, err = protocol.DecodeRecord(payload)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("decode welcome: %w", err)
	}
	return c, nil
}

// Send transmits one input snapshot and returns the server's reply.
func (c *Client) Send(in protocol.Input) ([]protocol.Record, error) {
	payload, err := protocol.EncodeInput(in)
	if err != nil {
		return nil, err
	}
	if err := gonet.WriteFrame(c.conn, payload); err != nil {
		return nil, err
	}
	reply, err := gonet.ReadFrame(c.conn, c.maxFrame)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeRecords(reply)
}

// SetDeadline bounds the next Send.
func (c *Client) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// Close tells the server the player is leaving, then hangs up.
func (c *Client) Close() error {
	c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	werr := gonet.WriteFrame(c.conn, protocol.LeaveMessage)
	if err := c.conn.Close(); err != nil {
		return err
	}
	return werr
}
