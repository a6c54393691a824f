package server

import (
	"bufio"
	"io"
	"net"
	"strconv"

	"github.com/juju/errors"
	"github.com/ngaut/log"

	"github.com/kvstack/tablestore/kv/kverrors"
	"github.com/kvstack/tablestore/kv/stack"
	"github.com/kvstack/tablestore/kv/storage"
	"github.com/kvstack/tablestore/protocol"
)

// commError marks a broken stream. No response is attempted on it; the
// session just ends.
type commError struct {
	err error
}

func (e *commError) Error() string {
	return "communication error: " + e.err.Error()
}

// isInteger reports whether s matches ^-?[0-9]+$.
func isInteger(s string) bool {
	if len(s) == 0 {
		return false
	}
	i := 0
	if s[0] == '-' {
		if len(s) == 1 {
			return false
		}
		i = 1
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Session is the per-client state machine. It owns the operand stack, the
// auth gate, and the set of table locks held by an open transaction, and it
// drives the read-decode-dispatch-respond loop until the client leaves or
// the protocol is violated.
type Session struct {
	conn     net.Conn
	reader   *bufio.Reader
	registry *storage.Registry

	stack         *stack.ValueStack
	user          string
	loggedIn      bool
	inTransaction bool
	heldLocks     map[*storage.Table]struct{}
}

func NewSession(conn net.Conn, registry *storage.Registry) *Session {
	return &Session{
		conn:      conn,
		reader:    bufio.NewReaderSize(conn, protocol.MaxEncodedLen),
		registry:  registry,
		stack:     stack.New(),
		heldLocks: make(map[*storage.Table]struct{}),
	}
}

// Chat serves the connection to completion. On every exit path an open
// transaction is rolled back and all held locks released.
func (s *Session) Chat() {
	remote := s.conn.RemoteAddr()
	log.Debugf("session %s connected", remote)
	defer func() {
		if s.inTransaction {
			log.Warnf("session %s (user %q) left mid-transaction, rolling back", remote, s.user)
			s.rollbackTransaction()
		}
		log.Debugf("session %s disconnected", remote)
	}()

	for {
		line, err := s.readLine()
		if err == io.EOF {
			return
		}
		var req *protocol.Message
		if err == nil {
			req, err = protocol.Decode(line)
		}
		if err == nil && !s.loggedIn && req.Type != protocol.MsgLogin {
			err = &protocol.InvalidMessage{Reason: "first message must be LOGIN"}
		}
		var done bool
		if err == nil {
			commandsTotal.WithLabelValues(req.Type.String()).Inc()
			done, err = s.dispatch(req)
		}
		if err != nil {
			if !s.respondError(err) {
				return
			}
			continue
		}
		if done {
			return
		}
	}
}

// readLine reads one newline-terminated frame. A clean end of stream is
// io.EOF; an over-long line is an InvalidMessage (the decoder may not accept
// more than MaxEncodedLen bytes); anything else is a commError.
func (s *Session) readLine() (string, error) {
	data, err := s.reader.ReadSlice('\n')
	switch err {
	case nil:
		return string(data), nil
	case bufio.ErrBufferFull:
		return "", &protocol.InvalidMessage{Reason: "encoded message exceeds maximum length"}
	case io.EOF:
		if len(data) == 0 {
			return "", io.EOF
		}
		// Trailing bytes without a newline; Decode rejects them.
		return string(data), nil
	default:
		return "", &commError{err: err}
	}
}

// respondError maps a handler error to its wire response and reports whether
// the session may keep serving.
func (s *Session) respondError(err error) bool {
	switch e := errors.Cause(err).(type) {
	case *protocol.InvalidMessage:
		commandFailures.WithLabelValues("invalid").Inc()
		// Best effort: the connection is closing either way.
		s.sendError(e.Reason)
		return false
	case *kverrors.OperationError:
		commandFailures.WithLabelValues("operation").Inc()
		if s.inTransaction {
			s.rollbackTransaction()
		}
		return s.sendFailed(e.Reason) == nil
	case *kverrors.FailedTransaction:
		commandFailures.WithLabelValues("transaction").Inc()
		s.rollbackTransaction()
		return s.sendFailed(e.Reason) == nil
	default:
		commandFailures.WithLabelValues("comm").Inc()
		return false
	}
}

func (s *Session) dispatch(req *protocol.Message) (done bool, err error) {
	switch req.Type {
	case protocol.MsgLogin:
		return false, s.handleLogin(req)
	case protocol.MsgCreate:
		return false, s.handleCreate(req)
	case protocol.MsgPush:
		s.stack.Push(req.Value())
		return false, s.sendOK()
	case protocol.MsgPop:
		if _, err := s.stack.Pop(); err != nil {
			return false, err
		}
		return false, s.sendOK()
	case protocol.MsgTop:
		v, err := s.stack.Top()
		if err != nil {
			return false, err
		}
		return false, s.sendData(v)
	case protocol.MsgSet:
		return false, s.handleSet(req)
	case protocol.MsgGet:
		return false, s.handleGet(req)
	case protocol.MsgAdd, protocol.MsgSub, protocol.MsgMul, protocol.MsgDiv:
		return false, s.handleArith(req.Type)
	case protocol.MsgBegin:
		return false, s.handleBegin()
	case protocol.MsgCommit:
		return false, s.handleCommit()
	case protocol.MsgBye:
		if err := s.sendOK(); err != nil {
			return true, err
		}
		return true, nil
	default:
		// A client must not send response messages.
		return false, &protocol.InvalidMessage{Reason: "unexpected response message " + req.Type.String()}
	}
}

// Repeat LOGIN is idempotent; the first-message rule only applies to the
// first command on the connection.
func (s *Session) handleLogin(req *protocol.Message) error {
	s.user = req.Username()
	s.loggedIn = true
	return s.sendOK()
}

func (s *Session) handleCreate(req *protocol.Message) error {
	if err := s.registry.CreateTable(req.TableName()); err != nil {
		return err
	}
	log.Infof("session %s (user %q) created table %q", s.conn.RemoteAddr(), s.user, req.TableName())
	return s.sendOK()
}

func (s *Session) handleSet(req *protocol.Message) error {
	v, err := s.stack.Pop()
	if err != nil {
		return err
	}
	tbl := s.registry.FindTable(req.TableName())
	if tbl == nil {
		return kverrors.NewOperationError("no such table")
	}
	if s.inTransaction {
		if err := s.lockTableTransaction(tbl); err != nil {
			return err
		}
		tbl.Set(req.Key(), v)
	} else {
		tbl.Lock()
		tbl.Set(req.Key(), v)
		tbl.Commit()
		tbl.Unlock()
	}
	return s.sendOK()
}

func (s *Session) handleGet(req *protocol.Message) error {
	tbl := s.registry.FindTable(req.TableName())
	if tbl == nil {
		return kverrors.NewOperationError("no such table")
	}
	var v string
	var err error
	if s.inTransaction {
		if err := s.lockTableTransaction(tbl); err != nil {
			return err
		}
		v, err = tbl.Get(req.Key())
	} else {
		tbl.Lock()
		v, err = tbl.Get(req.Key())
		tbl.Unlock()
	}
	if err != nil {
		return err
	}
	s.stack.Push(v)
	return s.sendOK()
}

// handleArith pops right then left, computes, and pushes the decimal result.
// A failed arithmetic command never changes the stack: the popped operands
// are pushed back before the error is raised.
func (s *Session) handleArith(op protocol.MessageType) error {
	right, err := s.stack.Pop()
	if err != nil {
		return err
	}
	left, err := s.stack.Pop()
	if err != nil {
		s.stack.Push(right)
		return kverrors.NewOperationError("not enough operands")
	}
	restore := func() {
		s.stack.Push(left)
		s.stack.Push(right)
	}
	l, lerr := parseOperand(left)
	r, rerr := parseOperand(right)
	if lerr != nil || rerr != nil {
		restore()
		return kverrors.NewOperationError("non-integer operand")
	}

	var result int64
	switch op {
	case protocol.MsgAdd:
		result = int64(int32(l) + int32(r))
	case protocol.MsgSub:
		result = int64(int32(l) - int32(r))
	case protocol.MsgMul:
		// 64-bit so the product of two 32-bit operands cannot overflow.
		result = l * r
	case protocol.MsgDiv:
		if r == 0 {
			restore()
			return kverrors.NewOperationError("division by zero")
		}
		result = int64(int32(l) / int32(r))
	}
	s.stack.Push(strconv.FormatInt(result, 10))
	return s.sendOK()
}

func parseOperand(s string) (int64, error) {
	if !isInteger(s) {
		return 0, kverrors.NewOperationError("non-integer operand")
	}
	return strconv.ParseInt(s, 10, 64)
}

func (s *Session) handleBegin() error {
	if s.inTransaction {
		return kverrors.NewFailedTransaction("nested transaction")
	}
	s.inTransaction = true
	return s.sendOK()
}

func (s *Session) handleCommit() error {
	if !s.inTransaction {
		return kverrors.NewOperationError("no transaction")
	}
	s.commitTransaction()
	return s.sendOK()
}

// lockTableTransaction ensures tbl's lock is held by this transaction. The
// acquire is non-blocking: contention aborts the transaction instead of
// waiting, so no cycle of waiters can ever form.
func (s *Session) lockTableTransaction(tbl *storage.Table) error {
	if _, held := s.heldLocks[tbl]; held {
		return nil
	}
	if !tbl.TryLock() {
		lockBusyTotal.Inc()
		return kverrors.NewFailedTransaction("lock busy")
	}
	s.heldLocks[tbl] = struct{}{}
	return nil
}

func (s *Session) commitTransaction() {
	for tbl := range s.heldLocks {
		tbl.Commit()
		tbl.Unlock()
	}
	s.heldLocks = make(map[*storage.Table]struct{})
	s.inTransaction = false
}

func (s *Session) rollbackTransaction() {
	for tbl := range s.heldLocks {
		tbl.Rollback()
		tbl.Unlock()
	}
	s.heldLocks = make(map[*storage.Table]struct{})
	s.inTransaction = false
}

func (s *Session) send(m *protocol.Message) error {
	encoded, err := protocol.Encode(m)
	if err != nil {
		return errors.Trace(err)
	}
	if _, err := s.conn.Write([]byte(encoded)); err != nil {
		return &commError{err: err}
	}
	return nil
}

func (s *Session) sendOK() error {
	return s.send(protocol.NewMessage(protocol.MsgOK))
}

func (s *Session) sendData(value string) error {
	return s.send(protocol.NewMessage(protocol.MsgData, value))
}

func (s *Session) sendFailed(reason string) error {
	return s.send(protocol.NewMessage(protocol.MsgFailed, reason))
}

func (s *Session) sendError(reason string) error {
	return s.send(protocol.NewMessage(protocol.MsgError, reason))
}
