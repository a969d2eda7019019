package image

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ardnew/softsd/pkg"
)

// Geometry and wire limits.
const (
	SectorSize = 512     // Bytes per sector
	MaxImages  = 15      // Usable slots (1-15); slot 0 is the floppy drive
	NameLength = 12      // Name field width in IMAGE_INFO responses
	Megabyte   = 1 << 20 // Capacity unit
)

// BusyFunc is called with true immediately before a sector operation touches
// its backing store and with false immediately after, on every exit path.
type BusyFunc func(busy bool)

// Image is a point-in-time description of one registered image.
type Image struct {
	Index      uint8
	Name       string
	CapacityMB int
	Size       int64
	Open       bool
}

// entry is one occupied table slot.
type entry struct {
	name       string
	size       int64
	capacityMB int
	storage    Storage
}

// Table is the indexed registry of disk images.
// Membership is fixed once registration is done; only the open state of
// each image changes afterwards.
type Table struct {
	slots [MaxImages + 1]*entry
	count int
	busy  BusyFunc
	mutex sync.RWMutex
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// SetBusyHook installs the function that brackets every sector operation.
func (t *Table) SetBusyHook(fn BusyFunc) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.busy = fn
}

// Register appends an image and returns its index.
// The capacity is computed once from the store's current size.
func (t *Table) Register(name string, storage Storage) (uint8, error) {
	if storage == nil {
		return 0, fmt.Errorf("register %q: %w", name, pkg.ErrInvalidParameter)
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.count >= MaxImages {
		return 0, fmt.Errorf("register %q: %w", name, pkg.ErrTableFull)
	}

	size := storage.Size()
	t.count++
	index := uint8(t.count)
	t.slots[index] = &entry{
		name:       name,
		size:       size,
		capacityMB: int(size / Megabyte),
		storage:    storage,
	}

	pkg.LogInfo(pkg.ComponentImage, "image registered",
		"index", index,
		"name", name,
		"capacityMB", size/Megabyte)

	return index, nil
}

// Count returns the number of registered images.
func (t *Table) Count() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.count
}

// lookup returns the entry at index. The caller holds the mutex.
func (t *Table) lookup(index uint8) (*entry, error) {
	if index == 0 || int(index) > t.count {
		return nil, fmt.Errorf("image %d: %w", index, pkg.ErrNotFound)
	}
	return t.slots[index], nil
}

// Describe returns the name and capacity of the image at index.
func (t *Table) Describe(index uint8) (string, int, error) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	e, err := t.lookup(index)
	if err != nil {
		return "", 0, err
	}
	return e.name, e.capacityMB, nil
}

// Open reopens the backing store of the image at index and rewinds it.
// Name and capacity are unchanged.
func (t *Table) Open(index uint8) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	e, err := t.lookup(index)
	if err != nil {
		return err
	}
	if err := e.storage.Open(); err != nil {
		return fmt.Errorf("open image %d (%s): %w: %w", index, e.name, pkg.ErrIOFailure, err)
	}
	return nil
}

// Close releases the backing store of the image at index.
// Closing a closed image is not an error.
func (t *Table) Close(index uint8) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	e, err := t.lookup(index)
	if err != nil {
		return err
	}
	if !e.storage.IsOpen() {
		return nil
	}
	if err := e.storage.Close(); err != nil {
		return fmt.Errorf("close image %d (%s): %w: %w", index, e.name, pkg.ErrIOFailure, err)
	}
	return nil
}

// CloseAll releases every backing store and returns the first error.
func (t *Table) CloseAll() error {
	var first error
	for i := 1; i <= t.Count(); i++ {
		if err := t.Close(uint8(i)); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Images returns a snapshot of every registered image in index order.
func (t *Table) Images() []Image {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	out := make([]Image, 0, t.count)
	for i := 1; i <= t.count; i++ {
		e := t.slots[i]
		out = append(out, Image{
			Index:      uint8(i),
			Name:       e.name,
			CapacityMB: e.capacityMB,
			Size:       e.size,
			Open:       e.storage.IsOpen(),
		})
	}
	return out
}

// SectorOffset translates a 16-bit sector number into a byte offset.
func SectorOffset(sector uint16) int64 {
	return int64(sector) * SectorSize
}

// SectorNumber rebuilds a sector number from its two wire bytes.
func SectorNumber(lsb, msb byte) uint16 {
	return uint16(msb)<<8 | uint16(lsb)
}

// locate validates a sector address against the image at index.
// The caller holds the mutex.
func (t *Table) locate(index uint8, sector uint16) (*entry, int64, error) {
	e, err := t.lookup(index)
	if err != nil {
		return nil, 0, err
	}
	if !e.storage.IsOpen() {
		return nil, 0, fmt.Errorf("image %d (%s): %w", index, e.name, pkg.ErrImageClosed)
	}
	offset := SectorOffset(sector)
	if offset+SectorSize > e.size {
		return nil, 0, fmt.Errorf("image %d sector %d: %w", index, sector, pkg.ErrOutOfRange)
	}
	return e, offset, nil
}

// bracket runs op between busy notifications.
func (t *Table) bracket(op func() error) error {
	if t.busy == nil {
		return op()
	}
	t.busy(true)
	defer t.busy(false)
	return op()
}

// ReadSector reads one sector of the image at index into buf.
func (t *Table) ReadSector(index uint8, sector uint16, buf []byte) error {
	if len(buf) < SectorSize {
		return fmt.Errorf("read sector: %w", io.ErrShortBuffer)
	}

	t.mutex.RLock()
	defer t.mutex.RUnlock()

	e, offset, err := t.locate(index, sector)
	if err != nil {
		return err
	}

	return t.bracket(func() error {
		n, err := e.storage.ReadAt(buf[:SectorSize], offset)
		if n == SectorSize && (err == nil || errors.Is(err, io.EOF)) {
			return nil
		}
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("read image %d sector %d: %w: %w", index, sector, pkg.ErrIOFailure, err)
	})
}

// WriteSector writes one sector of data to the image at index and syncs it.
func (t *Table) WriteSector(index uint8, sector uint16, data []byte) error {
	if len(data) < SectorSize {
		return fmt.Errorf("write sector: %w", io.ErrShortBuffer)
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	e, offset, err := t.locate(index, sector)
	if err != nil {
		return err
	}

	return t.bracket(func() error {
		if _, err := e.storage.WriteAt(data[:SectorSize], offset); err != nil {
			return fmt.Errorf("write image %d sector %d: %w: %w", index, sector, pkg.ErrIOFailure, err)
		}
		if err := e.storage.Sync(); err != nil {
			return fmt.Errorf("sync image %d: %w: %w", index, pkg.ErrIOFailure, err)
		}
		return nil
	})
}
