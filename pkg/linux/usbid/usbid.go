//go:build linux

package usbid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultPaths lists the standard locations for the USB ID database.
var DefaultPaths = []string{
	"/usr/share/hwdata/usb.ids",
	"/var/lib/usbutils/usb.ids",
	"/usr/share/misc/usb.ids",
}

// Database caches vendor and product names.
type Database struct {
	vendors  map[uint16]string // VID -> vendor name
	products map[uint32]string // (VID<<16)|PID -> product name
	loaded   bool
	paths    []string
	mu       sync.RWMutex
}

// New creates a database that searches DefaultPaths.
func New() *Database {
	return NewWithPaths(DefaultPaths)
}

// NewWithPaths creates a database that searches paths in order.
func NewWithPaths(paths []string) *Database {
	return &Database{
		vendors:  make(map[uint16]string),
		products: make(map[uint32]string),
		paths:    paths,
	}
}

// Load parses the first database file found. Later calls do nothing.
// It reports whether a file was parsed.
func (db *Database) Load() bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.loaded {
		return len(db.vendors) > 0
	}
	db.loaded = true

	for _, path := range db.paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		err = db.parse(f)
		f.Close()
		if err == nil {
			return true
		}
	}
	return false
}

// Parse reads database entries from r, adding to any already loaded.
func (db *Database) Parse(r io.Reader) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.loaded = true
	return db.parse(r)
}

// parse reads the usb.ids format. The caller holds the mutex.
//
//	VVVV  Vendor name
//	<tab>PPPP  Product name
//
// Any other unindented line (class and language sections) ends the
// current vendor.
func (db *Database) parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	var vid uint16
	inVendor := false

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}

		if line[0] == '\t' {
			if !inVendor || len(line) < 2 || line[1] == '\t' {
				continue
			}
			id, name, ok := splitEntry(line[1:])
			if !ok {
				continue
			}
			db.products[uint32(vid)<<16|uint32(id)] = name
			continue
		}

		id, name, ok := splitEntry(line)
		if !ok {
			inVendor = false
			continue
		}
		vid = id
		inVendor = true
		db.vendors[vid] = name
	}
	return scanner.Err()
}

// splitEntry parses "XXXX  Name".
func splitEntry(s string) (uint16, string, bool) {
	if len(s) < 6 || s[4] != ' ' {
		return 0, "", false
	}
	id, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, "", false
	}
	return uint16(id), strings.TrimSpace(s[5:]), true
}

// LookupVendor returns the vendor name for vid, or "".
func (db *Database) LookupVendor(vid uint16) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.vendors[vid]
}

// LookupProduct returns the product name for vid and pid, or "".
func (db *Database) LookupProduct(vid, pid uint16) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.products[uint32(vid)<<16|uint32(pid)]
}

// Describe returns a display name for an adapter given the hexadecimal IDs
// reported by port enumeration. Unknown parts fall back to the raw IDs.
func (db *Database) Describe(vid, pid string) string {
	v, verr := strconv.ParseUint(vid, 16, 16)
	p, perr := strconv.ParseUint(pid, 16, 16)
	if verr != nil || perr != nil {
		return fmt.Sprintf("%s:%s", vid, pid)
	}

	vendor := db.LookupVendor(uint16(v))
	product := db.LookupProduct(uint16(v), uint16(p))
	switch {
	case vendor != "" && product != "":
		return vendor + " " + product
	case vendor != "":
		return fmt.Sprintf("%s %04x", vendor, p)
	default:
		return fmt.Sprintf("%04x:%04x", v, p)
	}
}

// VendorCount returns the number of vendors loaded.
func (db *Database) VendorCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.vendors)
}

// ProductCount returns the number of products loaded.
func (db *Database) ProductCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.products)
}
