// Package client is a thin synchronous client for the table store protocol:
// one request on the wire, one response back, per call.
package client

import (
	"bufio"
	"net"
	"strconv"

	"github.com/juju/errors"

	"github.com/kvstack/tablestore/protocol"
)

// RemoteError carries a FAILED or ERROR response from the server.
type RemoteError struct {
	Type   protocol.MessageType
	Reason string
}

func (e *RemoteError) Error() string {
	return e.Type.String() + ": " + e.Reason
}

// Client drives one protocol connection. It is not safe for concurrent use;
// the protocol itself is strictly request/response.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection, which the Client then owns.
func NewClient(conn net.Conn) *Client {
	return &Client{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, protocol.MaxEncodedLen),
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Call sends req and returns the server's response. FAILED and ERROR are
// returned as responses, not errors; use the Expect helpers for that.
func (c *Client) Call(req *protocol.Message) (*protocol.Message, error) {
	encoded, err := protocol.Encode(req)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if _, err := c.conn.Write([]byte(encoded)); err != nil {
		return nil, errors.Trace(err)
	}
	line, err := c.reader.ReadSlice('\n')
	if err != nil {
		return nil, errors.Annotate(err, "reading response")
	}
	resp, err := protocol.Decode(string(line))
	if err != nil {
		return nil, errors.Trace(err)
	}
	return resp, nil
}

// call sends req and requires a response of type want, converting FAILED and
// ERROR into RemoteError.
func (c *Client) call(req *protocol.Message, want protocol.MessageType) (*protocol.Message, error) {
	resp, err := c.Call(req)
	if err != nil {
		return nil, errors.Trace(err)
	}
	switch resp.Type {
	case want:
		return resp, nil
	case protocol.MsgFailed, protocol.MsgError:
		return nil, &RemoteError{Type: resp.Type, Reason: resp.QuotedText()}
	default:
		return nil, errors.Errorf("unexpected %s response", resp.Type)
	}
}

func (c *Client) callOK(req *protocol.Message) error {
	_, err := c.call(req, protocol.MsgOK)
	return err
}

func (c *Client) Login(username string) error {
	return c.callOK(protocol.NewMessage(protocol.MsgLogin, username))
}

func (c *Client) CreateTable(table string) error {
	return c.callOK(protocol.NewMessage(protocol.MsgCreate, table))
}

func (c *Client) Push(value string) error {
	return c.callOK(protocol.NewMessage(protocol.MsgPush, value))
}

func (c *Client) Pop() error {
	return c.callOK(protocol.NewMessage(protocol.MsgPop))
}

// Top returns the value on top of the operand stack without removing it.
func (c *Client) Top() (string, error) {
	resp, err := c.call(protocol.NewMessage(protocol.MsgTop), protocol.MsgData)
	if err != nil {
		return "", err
	}
	return resp.Value(), nil
}

func (c *Client) Set(table, key string) error {
	return c.callOK(protocol.NewMessage(protocol.MsgSet, table, key))
}

func (c *Client) Get(table, key string) error {
	return c.callOK(protocol.NewMessage(protocol.MsgGet, table, key))
}

func (c *Client) Begin() error {
	return c.callOK(protocol.NewMessage(protocol.MsgBegin))
}

func (c *Client) Commit() error {
	return c.callOK(protocol.NewMessage(protocol.MsgCommit))
}

func (c *Client) Bye() error {
	return c.callOK(protocol.NewMessage(protocol.MsgBye))
}

// GetValue is the common read flow of the CLI clients: GET then TOP.
func (c *Client) GetValue(table, key string) (string, error) {
	if err := c.Get(table, key); err != nil {
		return "", err
	}
	return c.Top()
}

// SetValue pushes value and stores it under table/key.
func (c *Client) SetValue(table, key, value string) error {
	if err := c.Push(value); err != nil {
		return err
	}
	return c.Set(table, key)
}

// IncrValue reads table/key, adds one, and writes it back, optionally inside
// a transaction. It returns the incremented value.
func (c *Client) IncrValue(table, key string, transactional bool) (int64, error) {
	if transactional {
		if err := c.Begin(); err != nil {
			return 0, err
		}
	}
	current, err := c.GetValue(table, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(current, 10, 64)
	if err != nil {
		return 0, errors.Annotatef(err, "value %q is not an integer", current)
	}
	if err := c.SetValue(table, key, strconv.FormatInt(n+1, 10)); err != nil {
		return 0, err
	}
	if transactional {
		if err := c.Commit(); err != nil {
			return 0, err
		}
	}
	return n + 1, nil
}
