// Package hal defines the byte transport abstraction used by the controller.
//
// The controller and the client only see a [Stream]: an ordered sequence of
// bytes that can be read as they arrive and written back. Concrete
// transports live in subpackages:
//
//   - serial - a UART via go.bug.st/serial, with an exclusive lock on the device
//   - fifo   - a pair of named pipes, for running client and controller as
//     separate local processes
//   - conn   - any net.Conn, for TCP serial bridges and in-process tests
//
// # Implementing a Stream
//
// Read must never block indefinitely; the controller relies on it returning
// (possibly with zero bytes) so it can observe cancellation:
//
//	func (s *myStream) Read(ctx context.Context, buf []byte) (int, error) {
//	    s.port.SetDeadline(time.Now().Add(hal.DefaultReadTimeout))
//	    n, err := s.port.Read(buf)
//	    if isTimeout(err) {
//	        return n, nil
//	    }
//	    return n, err
//	}
package hal
