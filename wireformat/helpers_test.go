package wireformat

import "github.com/sailgo/n2k-gateway/pgn"

func pgnMessage(priority uint8, pgnValue uint32, dest uint8, source uint8, payload []byte) pgn.Message {
	return pgn.Message{
		Priority:    priority,
		PGN:         pgnValue,
		Destination: dest,
		Source:      source,
		Timestamp:   0xFFFFFFFF,
		Payload:     payload,
	}
}
