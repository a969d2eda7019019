//go:build linux

package usbid

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleIDs = `# usb.ids sample
0403  Future Technology Devices International, Ltd
	6001  FT232 Serial (UART) IC
	6015  Bridge(I2C/SPI/UART/FIFO)
10c4  Silicon Labs
	ea60  CP210x UART Bridge
		0001  interface line ignored
1a86  QinHeng Electronics
	7523  CH340 serial converter

C 00  (Defined at Interface level)
	01  Audio
`

func TestParse(t *testing.T) {
	db := NewWithPaths(nil)
	if err := db.Parse(strings.NewReader(sampleIDs)); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if db.VendorCount() != 3 {
		t.Errorf("VendorCount() = %d, want 3", db.VendorCount())
	}
	if db.ProductCount() != 4 {
		t.Errorf("ProductCount() = %d, want 4", db.ProductCount())
	}

	tests := []struct {
		vid, pid uint16
		vendor   string
		product  string
	}{
		{0x0403, 0x6001, "Future Technology Devices International, Ltd", "FT232 Serial (UART) IC"},
		{0x10c4, 0xea60, "Silicon Labs", "CP210x UART Bridge"},
		{0x1a86, 0x7523, "QinHeng Electronics", "CH340 serial converter"},
		{0x1a86, 0x0001, "QinHeng Electronics", ""},
		{0xdead, 0xbeef, "", ""},
	}
	for _, tt := range tests {
		if got := db.LookupVendor(tt.vid); got != tt.vendor {
			t.Errorf("LookupVendor(%04x) = %q, want %q", tt.vid, got, tt.vendor)
		}
		if got := db.LookupProduct(tt.vid, tt.pid); got != tt.product {
			t.Errorf("LookupProduct(%04x, %04x) = %q, want %q", tt.vid, tt.pid, got, tt.product)
		}
	}
}

func TestDescribe(t *testing.T) {
	db := NewWithPaths(nil)
	if err := db.Parse(strings.NewReader(sampleIDs)); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		vid, pid string
		want     string
	}{
		{"10C4", "EA60", "Silicon Labs CP210x UART Bridge"},
		{"1a86", "1234", "QinHeng Electronics 1234"},
		{"dead", "beef", "dead:beef"},
		{"", "", ":"},
		{"zz", "01", "zz:01"},
	}
	for _, tt := range tests {
		if got := db.Describe(tt.vid, tt.pid); got != tt.want {
			t.Errorf("Describe(%q, %q) = %q, want %q", tt.vid, tt.pid, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usb.ids")
	if err := os.WriteFile(path, []byte(sampleIDs), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	db := NewWithPaths([]string{"/nonexistent/usb.ids", path})
	if !db.Load() {
		t.Fatal("Load() = false, want true")
	}
	if !db.Load() {
		t.Error("second Load() = false, want true")
	}
	if db.VendorCount() != 3 {
		t.Errorf("VendorCount() = %d, want 3", db.VendorCount())
	}
}

func TestLoadMissing(t *testing.T) {
	db := NewWithPaths([]string{"/nonexistent/usb.ids"})
	if db.Load() {
		t.Error("Load() = true, want false")
	}
	if got := db.Describe("0403", "6001"); got != "0403:6001" {
		t.Errorf("Describe() = %q, want 0403:6001", got)
	}
}
