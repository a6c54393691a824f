package protocol

// InvalidMessage is returned when the peer violates the wire protocol:
// malformed framing, unknown command, wrong arity, or a rejected argument.
// A server that sees one cannot trust further framing on the stream, so the
// connection must be closed after reporting it.
type InvalidMessage struct {
	Reason string
}

func (e *InvalidMessage) Error() string {
	return "invalid message: " + e.Reason
}

func invalidf(reason string) error {
	return &InvalidMessage{Reason: reason}
}
