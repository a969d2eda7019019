package controller

import "sync/atomic"

// Session holds the controller-wide flags reported by GET_STATUS and BUSY.
// It is written by the dispatcher's handlers and may be read from any
// goroutine.
type Session struct {
	mediaPresent atomic.Bool
	imagePresent atomic.Bool
	lastOK       atomic.Bool
	busy         atomic.Bool
}

// NewSession returns a session with media present and no failed command.
func NewSession() *Session {
	s := &Session{}
	s.mediaPresent.Store(true)
	s.lastOK.Store(true)
	return s
}

// MediaPresent reports whether the emulated card is present.
func (s *Session) MediaPresent() bool { return s.mediaPresent.Load() }

// SetMediaPresent sets the card-present flag.
func (s *Session) SetMediaPresent(v bool) { s.mediaPresent.Store(v) }

// ImagePresent reports whether at least one image was registered.
func (s *Session) ImagePresent() bool { return s.imagePresent.Load() }

// SetImagePresent sets the image-registered flag.
func (s *Session) SetImagePresent(v bool) { s.imagePresent.Store(v) }

// LastOK reports whether the most recent image or sector command succeeded.
func (s *Session) LastOK() bool { return s.lastOK.Load() }

// SetLastOK records the outcome of an image or sector command.
func (s *Session) SetLastOK(v bool) { s.lastOK.Store(v) }

// Busy reports whether a sector operation is in progress.
func (s *Session) Busy() bool { return s.busy.Load() }

// SetBusy sets the busy flag. It is installed as the image table's busy hook.
func (s *Session) SetBusy(v bool) { s.busy.Store(v) }

// StatusByte packs the session flags and the image count into the
// GET_STATUS response. Only the low 4 bits of count are representable.
func (s *Session) StatusByte(count int) byte {
	status := byte(count&0x0F) << StatusCountShift
	if !s.MediaPresent() {
		status |= StatusNoMedia
	}
	if !s.ImagePresent() {
		status |= StatusNoImage
	}
	if !s.LastOK() {
		status |= StatusLastFailed
	}
	return status
}

// BusyByte returns the BUSY response.
func (s *Session) BusyByte() byte {
	if s.Busy() {
		return BusyYes
	}
	return BusyNo
}
