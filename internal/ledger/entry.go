package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/caldermed/medanchor/internal/records"
)

// anchorSeparator splits the record type tag from the hash in an anchor
// message. The wire format is flat ASCII: "<TYPE>|<hash>".
const anchorSeparator = "|"

// Message is the decoded payload of a well-formed anchor entry.
type Message struct {
	Type records.Type `json:"type"`
	Hash string       `json:"hash"`
}

// Entry is one consumed unit from a ledger replay. SequenceNumber is
// assigned by the ledger and increases monotonically per topic; two
// deliveries with the same sequence number are the same logical entry.
type Entry struct {
	SequenceNumber     uint64    `json:"sequenceNumber"`
	ConsensusTimestamp time.Time `json:"consensusTimestamp"`
	Contents           []byte    `json:"contents"`

	// Message is the decoded anchor payload. The replay engine fills it
	// in; entries that fail to decode never appear in a ReplayWindow.
	Message Message `json:"message"`
}

// EncodeAnchor builds the wire form of an anchor message.
func EncodeAnchor(recordType records.Type, hash string) []byte {
	return []byte(string(recordType) + anchorSeparator + hash)
}

// DecodeAnchor parses anchor message contents. Splitting on the first
// separator must yield exactly two non-empty parts; anything else is a
// malformed entry and reported as ErrMalformedEntry.
func DecodeAnchor(contents []byte) (Message, error) {
	s := string(contents)
	typ, hash, found := strings.Cut(s, anchorSeparator)
	if !found || typ == "" || hash == "" {
		return Message{}, fmt.Errorf("%w: %q", ErrMalformedEntry, s)
	}
	return Message{Type: records.Type(typ), Hash: hash}, nil
}
