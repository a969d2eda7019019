package controller

import (
	"context"
	"encoding/hex"

	"github.com/ardnew/softsd/image"
	"github.com/ardnew/softsd/pkg"
)

// command describes one opcode: its fixed request length (opcode included),
// its nominal response length, and its handler.
type command struct {
	name        string
	requestLen  int
	responseLen int
	handle      func(c *Controller, ctx context.Context, req []byte) error
}

// commands is indexed by opcode - OpFirst.
var commands = [OpLast - OpFirst + 1]command{
	OpGetStatus - OpFirst:   {"GET_STATUS", 1, 1, (*Controller).handleGetStatus},
	OpBusy - OpFirst:        {"BUSY", 1, 1, (*Controller).handleBusy},
	OpReadSector - OpFirst:  {"READ_SECTOR", 4, image.SectorSize, (*Controller).handleReadSector},
	OpWriteSector - OpFirst: {"WRITE_SECTOR", 4 + image.SectorSize, 0, (*Controller).handleWriteSector},
	OpCloseImage - OpFirst:  {"CLOSE_IMAGE", 2, 0, (*Controller).handleCloseImage},
	OpOpenImage - OpFirst:   {"OPEN_IMAGE", 2, 0, (*Controller).handleOpenImage},
	OpImageInfo - OpFirst:   {"IMAGE_INFO", 2, image.NameLength + 1, (*Controller).handleImageInfo},
}

// lookup returns the command for op, or nil if op is not a known opcode.
func lookup(op byte) *command {
	if op < OpFirst || op > OpLast {
		return nil
	}
	return &commands[op-OpFirst]
}

// RequestLength returns the number of bytes the dispatcher consumes for a
// request starting with op. Unknown opcodes consume one byte.
func RequestLength(op byte) int {
	if cmd := lookup(op); cmd != nil {
		return cmd.requestLen
	}
	return 1
}

// ResponseLength returns the nominal number of bytes sent in reply to op.
// IMAGE_INFO sends more when a registered name is longer than
// image.NameLength.
func ResponseLength(op byte) int {
	if cmd := lookup(op); cmd != nil {
		return cmd.responseLen
	}
	return 0
}

// CommandName returns a human-readable opcode name.
func CommandName(op byte) string {
	if cmd := lookup(op); cmd != nil {
		return cmd.name
	}
	return "UNKNOWN"
}

// handleGetStatus processes GET_STATUS.
func (c *Controller) handleGetStatus(ctx context.Context, req []byte) error {
	c.respBuf[0] = c.session.StatusByte(c.table.Count())

	pkg.LogDebug(pkg.ComponentController, "status",
		"status", c.respBuf[0],
		"images", c.table.Count(),
		"mediaPresent", c.session.MediaPresent(),
		"imagePresent", c.session.ImagePresent(),
		"lastOK", c.session.LastOK())

	return c.send(ctx, c.respBuf[:1])
}

// handleBusy processes BUSY.
func (c *Controller) handleBusy(ctx context.Context, req []byte) error {
	c.respBuf[0] = c.session.BusyByte()
	pkg.LogDebug(pkg.ComponentController, "busy", "busy", c.respBuf[0] == BusyYes)
	return c.send(ctx, c.respBuf[:1])
}

// handleReadSector processes READ_SECTOR.
// A failed read still answers with a zeroed sector so the client, which
// always expects 512 bytes, stays in step.
func (c *Controller) handleReadSector(ctx context.Context, req []byte) error {
	index := req[1]
	sector := image.SectorNumber(req[2], req[3])

	err := c.table.ReadSector(index, sector, c.sectorBuf[:])
	c.complete(err, "index", index, "sector", sector)
	if err != nil {
		clear(c.sectorBuf[:])
	} else if pkg.DebugEnabled() {
		pkg.LogDebug(pkg.ComponentController, "sector read",
			"index", index,
			"sector", sector,
			"offset", image.SectorOffset(sector),
			"data", "\n"+hex.Dump(c.sectorBuf[:]))
	}

	return c.send(ctx, c.sectorBuf[:])
}

// handleWriteSector processes WRITE_SECTOR. It sends no response.
func (c *Controller) handleWriteSector(ctx context.Context, req []byte) error {
	index := req[1]
	sector := image.SectorNumber(req[2], req[3])
	data := req[4 : 4+image.SectorSize]

	if pkg.DebugEnabled() {
		pkg.LogDebug(pkg.ComponentController, "sector write",
			"index", index,
			"sector", sector,
			"offset", image.SectorOffset(sector),
			"data", "\n"+hex.Dump(data))
	}

	err := c.table.WriteSector(index, sector, data)
	c.complete(err, "index", index, "sector", sector)
	return nil
}

// handleCloseImage processes CLOSE_IMAGE. It sends no response.
func (c *Controller) handleCloseImage(ctx context.Context, req []byte) error {
	index := req[1]
	c.complete(c.table.Close(index), "index", index)
	return nil
}

// handleOpenImage processes OPEN_IMAGE. It sends no response.
func (c *Controller) handleOpenImage(ctx context.Context, req []byte) error {
	index := req[1]
	c.complete(c.table.Open(index), "index", index)
	return nil
}

// handleImageInfo processes IMAGE_INFO.
// The name is sent as registered, space-padded only when shorter than
// image.NameLength, followed by the capacity in MB truncated to one byte.
// An unknown index answers with a blank name and zero capacity.
func (c *Controller) handleImageInfo(ctx context.Context, req []byte) error {
	index := req[1]

	name, capacityMB, err := c.table.Describe(index)
	c.complete(err, "index", index)

	resp := EncodeImageInfo(c.infoBuf[:0], name, capacityMB)
	c.infoBuf = resp[:0]

	pkg.LogDebug(pkg.ComponentController, "image info",
		"index", index,
		"name", name,
		"capacityMB", capacityMB)

	return c.send(ctx, resp)
}

// EncodeImageInfo appends the IMAGE_INFO response for name and capacityMB to dst.
func EncodeImageInfo(dst []byte, name string, capacityMB int) []byte {
	dst = append(dst, name...)
	for i := len(name); i < image.NameLength; i++ {
		dst = append(dst, infoPadding)
	}
	return append(dst, byte(capacityMB))
}
