package record

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	formatVersion = 1
	// MimeType of Artifact.Data: a msgpack header followed by msgpack chunks.
	MimeType = "application/x-peercall-rtp+msgpack"
)

type TrackInfo struct {
	ID       string `msgpack:"id"`
	Kind     string `msgpack:"kind"`
	MimeType string `msgpack:"mime"`
	Local    bool   `msgpack:"local"`
}

type Header struct {
	Version   int         `msgpack:"v"`
	StartedAt time.Time   `msgpack:"started_at"`
	StoppedAt time.Time   `msgpack:"stopped_at"`
	Tracks    []TrackInfo `msgpack:"tracks"`
}

// Chunk is one RTP packet captured from a tapped track.
type Chunk struct {
	Track  string `msgpack:"t"`
	Offset int64  `msgpack:"o"`
	Packet []byte `msgpack:"p"`
}

// Artifact is the single blob a recording produces. The pipeline never
// persists it; the receiver decides where it goes.
type Artifact struct {
	Header Header
	Chunks int
	Data   []byte
}

func (a *Artifact) Duration() time.Duration {
	return a.Header.StoppedAt.Sub(a.Header.StartedAt)
}

func (a *Artifact) Size() int { return len(a.Data) }

func assemble(h Header, chunks [][]byte) (*Artifact, error) {
	head, err := msgpack.Marshal(&h)
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	size := len(head)
	for _, c := range chunks {
		size += len(c)
	}
	data := make([]byte, 0, size)
	data = append(data, head...)
	for _, c := range chunks {
		data = append(data, c...)
	}
	return &Artifact{Header: h, Chunks: len(chunks), Data: data}, nil
}

// Decode splits data back into its header and chunks.
func Decode(data []byte) (Header, []Chunk, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	var h Header
	if err := dec.Decode(&h); err != nil {
		return Header{}, nil, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != formatVersion {
		return Header{}, nil, fmt.Errorf("unsupported artifact version %d", h.Version)
	}
	var chunks []Chunk
	for {
		var c Chunk
		err := dec.Decode(&c)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Header{}, nil, fmt.Errorf("decode chunk %d: %w", len(chunks), err)
		}
		chunks = append(chunks, c)
	}
	return h, chunks, nil
}
