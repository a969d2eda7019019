package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ardnew/softsd/image"
	"github.com/ardnew/softsd/pkg"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", path, err)
	}
}

func writeDiskList(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, DiskListName), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoadDiskList(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"unix", "BOOT.DSK\nGAMES.DSK\n", []string{"BOOT.DSK", "GAMES.DSK"}},
		{"crlf", "BOOT.DSK\r\nGAMES.DSK\r\n", []string{"BOOT.DSK", "GAMES.DSK"}},
		{"no trailing newline", "BOOT.DSK\nGAMES.DSK", []string{"BOOT.DSK", "GAMES.DSK"}},
		{"comments", "# images\nBOOT.DSK\n#GAMES.DSK\n", []string{"BOOT.DSK"}},
		{"blank lines", "\n  \nBOOT.DSK\n\n", []string{"BOOT.DSK"}},
		{"whitespace", "  BOOT.DSK \t\n", []string{"BOOT.DSK"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeDiskList(t, dir, tt.content)

			got, err := LoadDiskList(dir)
			if err != nil {
				t.Fatalf("LoadDiskList() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("LoadDiskList() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadDiskListMissing(t *testing.T) {
	_, err := LoadDiskList(t.TempDir())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadDiskList() error = %v, want ErrNotExist", err)
	}
}

func TestOpenImages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "BOOT.DSK"), 1<<20)
	writeFile(t, filepath.Join(dir, "SMALL.DSK"), 64*image.SectorSize)

	table := image.NewTable()
	n, err := OpenImages(dir, []string{"BOOT.DSK", "MISSING.DSK", "SMALL.DSK"}, table, ModeReadWrite)
	if err != nil {
		t.Fatalf("OpenImages() error = %v", err)
	}
	defer table.CloseAll()

	if n != 2 || table.Count() != 2 {
		t.Fatalf("OpenImages() = %d, Count() = %d, want 2, 2", n, table.Count())
	}

	want := []struct {
		name string
		mb   int
	}{
		{"BOOT.DSK", 1},
		{"SMALL.DSK", 0},
	}
	for i, w := range want {
		name, mb, err := table.Describe(uint8(i + 1))
		if err != nil {
			t.Fatalf("Describe(%d) error = %v", i+1, err)
		}
		if name != w.name || mb != w.mb {
			t.Errorf("Describe(%d) = %q, %d, want %q, %d", i+1, name, mb, w.name, w.mb)
		}
	}
}

func TestOpenImagesTableFull(t *testing.T) {
	dir := t.TempDir()
	var entries []string
	for i := 0; i < image.MaxImages+3; i++ {
		name := fmt.Sprintf("D%02d.DSK", i)
		writeFile(t, filepath.Join(dir, name), image.SectorSize)
		entries = append(entries, name)
	}

	table := image.NewTable()
	n, err := OpenImages(dir, entries, table, ModeReadOnly)
	if err != nil {
		t.Fatalf("OpenImages() error = %v", err)
	}
	defer table.CloseAll()

	if n != image.MaxImages {
		t.Errorf("OpenImages() = %d, want %d", n, image.MaxImages)
	}
}

func TestOpenImagesReadOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "RO.DSK"), 4*image.SectorSize)

	table := image.NewTable()
	if _, err := OpenImages(dir, []string{"RO.DSK"}, table, ModeReadOnly); err != nil {
		t.Fatalf("OpenImages() error = %v", err)
	}
	defer table.CloseAll()

	err := table.WriteSector(1, 0, make([]byte, image.SectorSize))
	if !errors.Is(err, pkg.ErrIOFailure) {
		t.Errorf("WriteSector() error = %v, want ErrIOFailure", err)
	}
}

func TestOpenImagesMemory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "RAM.DSK")
	writeFile(t, path, 4*image.SectorSize)

	table := image.NewTable()
	if _, err := OpenImages(dir, []string{"RAM.DSK"}, table, ModeMemory); err != nil {
		t.Fatalf("OpenImages() error = %v", err)
	}

	data := make([]byte, image.SectorSize)
	for i := range data {
		data[i] = 0x99
	}
	if err := table.WriteSector(1, 1, data); err != nil {
		t.Fatalf("WriteSector() error = %v", err)
	}

	buf := make([]byte, image.SectorSize)
	if err := table.ReadSector(1, 1, buf); err != nil {
		t.Fatalf("ReadSector() error = %v", err)
	}
	if buf[0] != 0x99 {
		t.Errorf("ReadSector() byte = %#02x, want 99", buf[0])
	}

	onDisk, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if onDisk[image.SectorSize] != 0 {
		t.Error("memory mode wrote through to the file")
	}
}

func TestModeString(t *testing.T) {
	tests := []struct {
		m    Mode
		want string
	}{
		{ModeReadWrite, "read-write"},
		{ModeReadOnly, "read-only"},
		{ModeMemory, "memory"},
		{Mode(7), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("Mode(%d).String() = %q, want %q", tt.m, got, tt.want)
		}
	}
}

func TestLoadImages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "BOOT.DSK"), 2<<20)
	writeDiskList(t, dir, "# boot disk\r\nBOOT.DSK\r\n")

	table, err := LoadImages(dir, ModeReadWrite)
	if err != nil {
		t.Fatalf("LoadImages() error = %v", err)
	}
	defer table.CloseAll()

	images := table.Images()
	if len(images) != 1 || images[0].Name != "BOOT.DSK" || images[0].CapacityMB != 2 || !images[0].Open {
		t.Errorf("Images() = %+v", images)
	}

	if _, err := LoadImages(t.TempDir(), ModeReadWrite); err == nil {
		t.Error("LoadImages() without disk list succeeded")
	}
}

func TestServeConfigValidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	writeFile(t, file, 0)

	tests := []struct {
		name     string
		cfg      ServeConfig
		wantErr  error
		wantBaud int
		wantName string
	}{
		{"serial", ServeConfig{Port: "/dev/ttyUSB0", Baud: 57600, Folder: dir}, nil, 57600, "serial"},
		{"serial default baud", ServeConfig{Port: "/dev/ttyUSB0", Folder: dir}, nil, 115200, "serial"},
		{"serial bad baud", ServeConfig{Port: "/dev/ttyUSB0", Baud: 12345, Folder: dir}, nil, 115200, "serial"},
		{"fifo", ServeConfig{FifoDir: dir, Folder: dir}, nil, 0, "fifo"},
		{"tcp", ServeConfig{Listen: ":7000", Folder: dir}, nil, 0, "tcp"},
		{"no transport", ServeConfig{Folder: dir}, pkg.ErrNotConfigured, 0, ""},
		{"two transports", ServeConfig{Port: "/dev/ttyUSB0", Listen: ":7000", Folder: dir}, pkg.ErrInvalidParameter, 0, "serial"},
		{"no folder", ServeConfig{Listen: ":7000"}, pkg.ErrNotConfigured, 0, "tcp"},
		{"folder missing", ServeConfig{Listen: ":7000", Folder: filepath.Join(dir, "nope")}, os.ErrNotExist, 0, "tcp"},
		{"folder is file", ServeConfig{Listen: ":7000", Folder: file}, pkg.ErrInvalidParameter, 0, "tcp"},
		{"bad mode", ServeConfig{Listen: ":7000", Folder: dir, Mode: Mode(9)}, pkg.ErrInvalidParameter, 0, "tcp"},
		{"negative poll", ServeConfig{Listen: ":7000", Folder: dir, PollInterval: -time.Second}, pkg.ErrInvalidParameter, 0, "tcp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			err := cfg.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && cfg.Baud != tt.wantBaud {
				t.Errorf("Baud = %d, want %d", cfg.Baud, tt.wantBaud)
			}
			if got := cfg.Transport(); got != tt.wantName {
				t.Errorf("Transport() = %q, want %q", got, tt.wantName)
			}
		})
	}
}
