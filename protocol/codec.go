package protocol

import (
	"strings"
)

// MaxEncodedLen is the maximum size of one encoded message, newline included.
// Encoders must fail rather than exceed it; decoders must reject anything
// longer.
const MaxEncodedLen = 1024

// Encode renders m as a single newline-terminated line. Arguments containing
// a space or a '"' are surrounded by double quotes; there is no escape
// syntax, which is sound because valid arguments never contain '"'.
func Encode(m *Message) (string, error) {
	if !m.IsValid() {
		return "", invalidf("message is not valid")
	}
	var b strings.Builder
	b.WriteString(m.Type.String())
	for _, arg := range m.Args {
		b.WriteByte(' ')
		if strings.ContainsAny(arg, " \"") {
			b.WriteByte('"')
			b.WriteString(arg)
			b.WriteByte('"')
		} else {
			b.WriteString(arg)
		}
	}
	b.WriteByte('\n')
	if b.Len() > MaxEncodedLen {
		return "", invalidf("encoded message exceeds maximum length")
	}
	return b.String(), nil
}

// Decode parses one encoded line back into a Message. The line must include
// its terminating newline. Leading whitespace and runs of spaces or tabs
// between tokens are tolerated; everything else that deviates from the wire
// format is an InvalidMessage error.
func Decode(encoded string) (*Message, error) {
	if len(encoded) > MaxEncodedLen {
		return nil, invalidf("encoded message exceeds maximum length")
	}
	if len(encoded) == 0 || encoded[len(encoded)-1] != '\n' {
		return nil, invalidf("missing terminating newline")
	}
	tokens := strings.Fields(encoded[:len(encoded)-1])
	if len(tokens) == 0 {
		return nil, invalidf("empty message")
	}
	msgType, ok := typeByToken[tokens[0]]
	if !ok {
		return nil, invalidf("unknown command " + tokens[0])
	}

	var args []string
	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]
		if tok[0] != '"' {
			args = append(args, tok)
			continue
		}
		// Quoted argument: join tokens until one ends with the closing
		// quote. Runs of internal whitespace collapse to single spaces.
		arg := tok[1:]
		for len(arg) > 0 && arg[len(arg)-1] != '"' {
			i++
			if i >= len(tokens) {
				return nil, invalidf("unterminated quoted argument")
			}
			arg += " " + tokens[i]
		}
		if len(arg) == 0 || arg[len(arg)-1] != '"' {
			return nil, invalidf("unterminated quoted argument")
		}
		args = append(args, arg[:len(arg)-1])
	}

	m := &Message{Type: msgType, Args: args}
	if !m.IsValid() {
		return nil, invalidf("decoded message is invalid")
	}
	return m, nil
}
