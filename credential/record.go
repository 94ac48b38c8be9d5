package credential

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

const recordFormatVersionV1 = 1

// Record is the persisted form of a session credential.
type Record struct {
	Token   string
	SavedAt int64
}

// Encode serializes r in the current record format.
func Encode(r Record) ([]byte, error) {
	if r.Token == "" {
		return nil, errors.New("credential: empty token")
	}
	if len(r.Token) > math.MaxUint16 {
		return nil, errors.New("credential: token too long")
	}

	var buf bytes.Buffer
	buf.Grow(1 + 2 + len(r.Token) + 8)
	buf.WriteByte(recordFormatVersionV1)
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(r.Token))); err != nil {
		return nil, err
	}
	buf.WriteString(r.Token)
	if err := binary.Write(&buf, binary.BigEndian, r.SavedAt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a record produced by Encode.
func Decode(data []byte) (Record, error) {
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil {
		return Record{}, ErrCorrupt
	}
	if version != recordFormatVersionV1 {
		return Record{}, ErrCorrupt
	}

	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return Record{}, ErrCorrupt
	}
	if n == 0 {
		return Record{}, ErrCorrupt
	}
	token := make([]byte, n)
	if _, err := io.ReadFull(r, token); err != nil {
		return Record{}, ErrCorrupt
	}

	var savedAt int64
	if err := binary.Read(r, binary.BigEndian, &savedAt); err != nil {
		return Record{}, ErrCorrupt
	}
	if r.Len() != 0 {
		return Record{}, ErrCorrupt
	}

	return Record{Token: string(token), SavedAt: savedAt}, nil
}
