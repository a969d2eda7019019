package controller

// Command opcodes.
const (
	OpGetStatus   = 0xB0 // Report controller status
	OpBusy        = 0xB1 // Report whether a sector operation is in progress
	OpReadSector  = 0xB2 // Read a 512-byte sector
	OpWriteSector = 0xB3 // Write a 512-byte sector
	OpCloseImage  = 0xB4 // Close a disk image
	OpOpenImage   = 0xB5 // Reopen a disk image
	OpImageInfo   = 0xB6 // Report a disk image's name and capacity
)

// Opcode range. Bytes outside it are skipped one at a time.
const (
	OpFirst = OpGetStatus
	OpLast  = OpImageInfo
)

// GET_STATUS bits. The high nibble carries the image count.
const (
	StatusNoMedia    = 0x01 // No card present
	StatusNoImage    = 0x02 // No disk image registered
	StatusLastFailed = 0x04 // Previous command failed
	StatusCountShift = 4
)

// BUSY responses.
const (
	BusyNo  = 0x00
	BusyYes = 0x01
)

// infoPadding pads IMAGE_INFO names shorter than image.NameLength.
const infoPadding = 0x20

// Framing selects how the dispatcher splits the byte stream into commands.
type Framing int

// Framing modes.
const (
	// FramingOpcode frames purely by opcode length. A zero byte between
	// commands is an unknown opcode and is skipped.
	FramingOpcode Framing = iota

	// FramingLegacy additionally treats a zero byte immediately after a
	// command as the end of the batch and drops the rest of the pending
	// input.
	FramingLegacy
)

// String returns the framing mode name.
func (f Framing) String() string {
	switch f {
	case FramingOpcode:
		return "opcode"
	case FramingLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}
