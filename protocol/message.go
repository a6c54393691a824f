package protocol

import "regexp"

// MessageType enumerates every request and response the wire protocol knows
// about. MsgNone is a sentinel for a zero-value Message and never appears on
// the wire.
type MessageType int

const (
	MsgNone MessageType = iota

	// Requests.
	MsgLogin
	MsgCreate
	MsgPush
	MsgPop
	MsgTop
	MsgSet
	MsgGet
	MsgAdd
	MsgSub
	MsgMul
	MsgDiv
	MsgBegin
	MsgCommit
	MsgBye

	// Responses.
	MsgOK
	MsgFailed
	MsgError
	MsgData
)

var typeNames = [...]string{
	MsgNone:   "NONE",
	MsgLogin:  "LOGIN",
	MsgCreate: "CREATE",
	MsgPush:   "PUSH",
	MsgPop:    "POP",
	MsgTop:    "TOP",
	MsgSet:    "SET",
	MsgGet:    "GET",
	MsgAdd:    "ADD",
	MsgSub:    "SUB",
	MsgMul:    "MUL",
	MsgDiv:    "DIV",
	MsgBegin:  "BEGIN",
	MsgCommit: "COMMIT",
	MsgBye:    "BYE",
	MsgOK:     "OK",
	MsgFailed: "FAILED",
	MsgError:  "ERROR",
	MsgData:   "DATA",
}

// typeByToken maps command tokens back to their types. MsgNone is excluded:
// it is not a wire token.
var typeByToken = func() map[string]MessageType {
	m := make(map[string]MessageType, len(typeNames))
	for t, name := range typeNames {
		if MessageType(t) == MsgNone {
			continue
		}
		m[name] = MessageType(t)
	}
	return m
}()

func (t MessageType) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "UNKNOWN"
}

// slotKind describes how one argument position is validated.
type slotKind int

const (
	// slotIdentifier must match the identifier rule (usernames, table
	// names, keys).
	slotIdentifier slotKind = iota
	// slotValue is a non-empty string with no whitespace and no '"'.
	slotValue
	// slotText is free text for FAILED/ERROR reasons. It may contain
	// spaces; quoting on the wire has no escape syntax, so '"' and line
	// breaks are still forbidden.
	slotText
)

// msgSlots is the authoritative arity table. A type absent from this map is
// not a valid message type.
var msgSlots = map[MessageType][]slotKind{
	MsgLogin:  {slotIdentifier},
	MsgCreate: {slotIdentifier},
	MsgPush:   {slotValue},
	MsgPop:    {},
	MsgTop:    {},
	MsgSet:    {slotIdentifier, slotIdentifier},
	MsgGet:    {slotIdentifier, slotIdentifier},
	MsgAdd:    {},
	MsgSub:    {},
	MsgMul:    {},
	MsgDiv:    {},
	MsgBegin:  {},
	MsgCommit: {},
	MsgBye:    {},
	MsgOK:     {},
	MsgFailed: {slotText},
	MsgError:  {slotText},
	MsgData:   {slotValue},
}

var identRegexp = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// IsIdentifier reports whether s is a legal username, table name or key.
func IsIdentifier(s string) bool {
	return identRegexp.MatchString(s)
}

func isValue(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n', '"':
			return false
		}
	}
	return true
}

func isQuotedText(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\r', '\n':
			return false
		}
	}
	return true
}

// Message is one protocol request or response: a type plus an ordered vector
// of string arguments.
type Message struct {
	Type MessageType
	Args []string
}

func NewMessage(t MessageType, args ...string) *Message {
	return &Message{Type: t, Args: args}
}

// IsValid reports whether the message has the exact arity for its type and
// every argument satisfies its slot rule.
func (m *Message) IsValid() bool {
	slots, ok := msgSlots[m.Type]
	if !ok {
		return false
	}
	if len(m.Args) != len(slots) {
		return false
	}
	for i, kind := range slots {
		arg := m.Args[i]
		switch kind {
		case slotIdentifier:
			if !IsIdentifier(arg) {
				return false
			}
		case slotValue:
			if !isValue(arg) {
				return false
			}
		case slotText:
			if !isQuotedText(arg) {
				return false
			}
		}
	}
	return true
}

// IsRequest reports whether the type is a client-issued command.
func (m *Message) IsRequest() bool {
	return m.Type >= MsgLogin && m.Type <= MsgBye
}

// Username returns the LOGIN username, or "" for other types.
func (m *Message) Username() string {
	if m.Type == MsgLogin && len(m.Args) > 0 {
		return m.Args[0]
	}
	return ""
}

// TableName returns the table argument of CREATE/SET/GET, or "".
func (m *Message) TableName() string {
	switch m.Type {
	case MsgCreate, MsgSet, MsgGet:
		if len(m.Args) > 0 {
			return m.Args[0]
		}
	}
	return ""
}

// Key returns the key argument of SET/GET, or "".
func (m *Message) Key() string {
	switch m.Type {
	case MsgSet, MsgGet:
		if len(m.Args) > 1 {
			return m.Args[1]
		}
	}
	return ""
}

// Value returns the value carried by PUSH or DATA, or "".
func (m *Message) Value() string {
	switch m.Type {
	case MsgPush, MsgData:
		if len(m.Args) > 0 {
			return m.Args[0]
		}
	}
	return ""
}

// QuotedText returns the reason text of FAILED/ERROR, or "".
func (m *Message) QuotedText() string {
	switch m.Type {
	case MsgFailed, MsgError:
		if len(m.Args) > 0 {
			return m.Args[0]
		}
	}
	return ""
}
