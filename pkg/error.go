package pkg

import "errors"

// Controller errors.
var (
	// ErrTableFull indicates every usable image slot is occupied.
	ErrTableFull = errors.New("image table full")

	// ErrNotFound indicates an image index with no registered image.
	ErrNotFound = errors.New("image not found")

	// ErrOutOfRange indicates a sector beyond the backing store's recorded size.
	ErrOutOfRange = errors.New("sector out of range")

	// ErrIOFailure indicates the backing store failed a read or write.
	ErrIOFailure = errors.New("backing store I/O failure")

	// ErrImageClosed indicates I/O against an image whose backing store is closed.
	ErrImageClosed = errors.New("image closed")

	// ErrTransport indicates the byte stream failed. It is fatal to the controller.
	ErrTransport = errors.New("transport failure")

	// ErrPortBusy indicates the serial device is held by another process.
	ErrPortBusy = errors.New("port in use by another process")

	// ErrNotConfigured indicates a component was used before it was set up.
	ErrNotConfigured = errors.New("not configured")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrAlreadyRunning indicates the controller loop is already running.
	ErrAlreadyRunning = errors.New("already running")

	// ErrCancelled indicates an operation was cancelled by closing its stream.
	ErrCancelled = errors.New("cancelled")

	// ErrShortResponse indicates the controller sent fewer bytes than expected.
	ErrShortResponse = errors.New("short response")
)

// Outcome classifies the result of one controller command for logging.
type Outcome int

// Command outcomes.
const (
	OutcomeOK         Outcome = iota // Command succeeded
	OutcomeNotFound                  // Bad image index
	OutcomeOutOfRange                // Sector beyond image
	OutcomeClosed                    // Image closed
	OutcomeIOFailure                 // Backing store error
	OutcomeError                     // Anything else
)

// Classify maps an error returned by the image layer to an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrOutOfRange):
		return OutcomeOutOfRange
	case errors.Is(err, ErrImageClosed):
		return OutcomeClosed
	case errors.Is(err, ErrIOFailure):
		return OutcomeIOFailure
	default:
		return OutcomeError
	}
}

// String returns a string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not-found"
	case OutcomeOutOfRange:
		return "out-of-range"
	case OutcomeClosed:
		return "closed"
	case OutcomeIOFailure:
		return "io-failure"
	default:
		return "error"
	}
}
