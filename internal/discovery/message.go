package discovery

import "strings"

// Wire markers. A probe datagram is the bare probe marker; an identify
// datagram is the identify marker immediately followed by the sender's
// token in its salt:hash hex form.
const (
	probeMarker    = "ʀ"
	identifyMarker = "ʁ"
)

type MessageKind int

const (
	KindUnknown MessageKind = iota
	KindProbe
	KindIdentify
)

type Message struct {
	Kind  MessageKind
	Token string
}

func EncodeProbe() []byte {
	return []byte(probeMarker)
}

func EncodeIdentify(token string) []byte {
	return []byte(identifyMarker + token)
}

// ParseDatagram classifies a raw datagram payload. Payloads that are
// neither a probe nor an identify are returned as KindUnknown and ignored
// by the loop.
func ParseDatagram(payload []byte) Message {
	s := string(payload)

	switch {
	case s == probeMarker:
		return Message{Kind: KindProbe}
	case strings.HasPrefix(s, identifyMarker):
		return Message{Kind: KindIdentify, Token: strings.TrimPrefix(s, identifyMarker)}
	default:
		return Message{Kind: KindUnknown}
	}
}
