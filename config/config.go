// Package config loads the disk list and validates serve settings.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ardnew/softsd/hal/serial"
	"github.com/ardnew/softsd/image"
	"github.com/ardnew/softsd/pkg"
)

// DiskListName is the file in the image folder that lists the images to
// serve, one file name per line.
const DiskListName = "_disks.cfg"

// LoadDiskList reads the disk list in folder.
// Lines starting with '#' are comments. Surrounding whitespace and line
// endings are trimmed and blank lines are skipped.
func LoadDiskList(folder string) ([]string, error) {
	path := filepath.Join(folder, DiskListName)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load disk list: %w", err)
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := scanner.Text()
		if strings.HasPrefix(text, "#") {
			continue
		}
		name := strings.TrimSpace(text)
		if name == "" {
			continue
		}
		entries = append(entries, name)
		pkg.LogDebug(pkg.ComponentConfig, "disk list entry",
			"line", line,
			"name", name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("load disk list %s: %w", path, err)
	}

	return entries, nil
}

// Mode selects how image files are backed.
type Mode int

// Storage modes.
const (
	ModeReadWrite Mode = iota // Files opened read-write; writes reach the file
	ModeReadOnly              // Files opened read-only; writes fail
	ModeMemory                // Files copied into memory; writes are discarded on exit
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeReadWrite:
		return "read-write"
	case ModeReadOnly:
		return "read-only"
	case ModeMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// openStorage opens the image file at path in the given mode.
func openStorage(path string, mode Mode) (image.Storage, error) {
	switch mode {
	case ModeReadWrite, ModeReadOnly:
		return image.NewFileStorage(path, mode == ModeReadOnly)
	case ModeMemory:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return image.NewMemoryStorageFrom(data), nil
	default:
		return nil, fmt.Errorf("%w: storage mode %d", pkg.ErrInvalidParameter, mode)
	}
}

// OpenImages opens each entry relative to folder and registers it in table
// under its file name. Entries that cannot be opened are logged and
// skipped. Registration stops when the table is full. It returns the number
// of images registered.
func OpenImages(folder string, entries []string, table *image.Table, mode Mode) (int, error) {
	registered := 0
	for _, name := range entries {
		store, err := openStorage(filepath.Join(folder, name), mode)
		if err != nil {
			pkg.LogWarn(pkg.ComponentConfig, "skipping image",
				"name", name,
				"error", err)
			continue
		}

		index, err := table.Register(name, store)
		if err != nil {
			store.Close()
			if errors.Is(err, pkg.ErrTableFull) {
				pkg.LogWarn(pkg.ComponentConfig, "image table full, ignoring remaining entries",
					"name", name,
					"max", image.MaxImages)
				break
			}
			return registered, err
		}
		registered++

		_, mb, _ := table.Describe(index)
		pkg.LogInfo(pkg.ComponentConfig, "opened image",
			"index", index,
			"name", name,
			"capacityMB", mb,
			"mode", mode)
	}
	return registered, nil
}

// LoadImages reads the disk list in folder and opens every entry into a new
// table.
func LoadImages(folder string, mode Mode) (*image.Table, error) {
	entries, err := LoadDiskList(folder)
	if err != nil {
		return nil, err
	}
	table := image.NewTable()
	if _, err := OpenImages(folder, entries, table, mode); err != nil {
		table.CloseAll()
		return nil, err
	}
	return table, nil
}

// ServeConfig holds the settings of one controller instance.
// Exactly one of Port, FifoDir and Listen selects the transport.
type ServeConfig struct {
	Port          string        // Serial device path
	Baud          int           // Serial baud rate
	FifoDir       string        // Directory holding the named-pipe pair
	Listen        string        // TCP address to accept one client on
	Folder        string        // Directory holding _disks.cfg and the images
	PollInterval  time.Duration // Idle sleep between empty reads
	LegacyFraming bool          // Treat a zero byte after a command as end of batch
	Mode          Mode          // How image files are backed
}

// Transport returns the name of the selected transport.
func (c *ServeConfig) Transport() string {
	switch {
	case c.Port != "":
		return "serial"
	case c.FifoDir != "":
		return "fifo"
	case c.Listen != "":
		return "tcp"
	default:
		return ""
	}
}

// Validate checks the settings and fills in defaults.
// An unsupported baud rate falls back to serial.DefaultBaud.
func (c *ServeConfig) Validate() error {
	selected := 0
	for _, s := range []string{c.Port, c.FifoDir, c.Listen} {
		if s != "" {
			selected++
		}
	}
	switch selected {
	case 0:
		return fmt.Errorf("%w: one of port, fifo or listen is required", pkg.ErrNotConfigured)
	case 1:
	default:
		return fmt.Errorf("%w: port, fifo and listen are mutually exclusive", pkg.ErrInvalidParameter)
	}

	if c.Folder == "" {
		return fmt.Errorf("%w: image folder is required", pkg.ErrNotConfigured)
	}
	info, err := os.Stat(c.Folder)
	if err != nil {
		return fmt.Errorf("image folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: image folder %s is not a directory", pkg.ErrInvalidParameter, c.Folder)
	}

	if c.Mode < ModeReadWrite || c.Mode > ModeMemory {
		return fmt.Errorf("%w: storage mode %d", pkg.ErrInvalidParameter, c.Mode)
	}

	if c.PollInterval < 0 {
		return fmt.Errorf("%w: poll interval %v is negative", pkg.ErrInvalidParameter, c.PollInterval)
	}

	if c.Port != "" {
		if rate := serial.BaudRate(c.Baud); rate != c.Baud {
			if c.Baud != 0 {
				pkg.LogWarn(pkg.ComponentConfig, "unsupported baud rate, using default",
					"baud", c.Baud,
					"default", rate)
			}
			c.Baud = rate
		}
	}

	return nil
}
