package hal

import (
	"context"
	"time"
)

// DefaultReadTimeout bounds how long a Stream.Read waits for the first byte.
const DefaultReadTimeout = 100 * time.Millisecond

// ReadBufferSize is large enough to hold one WRITE_SECTOR request
// (opcode, image, sector LSB, sector MSB, 512 data bytes) plus slack.
const ReadBufferSize = 520

// Stream defines the byte transport between the controller and its client.
//
// A Stream carries an ordered, reliable sequence of bytes with no framing of
// its own. Reads may return any number of bytes; commands can be split
// across reads or share a read with other commands.
//
// Implementations need not be safe for concurrent use by multiple readers
// or multiple writers, but a Read and a Write may run concurrently.
type Stream interface {
	// Read copies the bytes currently available into buf.
	// It waits at most a short, bounded interval for the first byte and
	// returns 0 with a nil error if none arrived. A non-nil error means the
	// stream is unusable.
	Read(ctx context.Context, buf []byte) (int, error)

	// Write sends all of data or returns an error.
	Write(ctx context.Context, data []byte) (int, error)

	// Close releases the transport.
	Close() error
}

// ReadFull reads exactly len(buf) bytes from s, retrying empty reads until
// the context is done.
func ReadFull(ctx context.Context, s Stream, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.Read(ctx, buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
