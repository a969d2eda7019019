package controller

import "testing"

func TestNewSession(t *testing.T) {
	s := NewSession()
	if !s.MediaPresent() {
		t.Error("MediaPresent() = false, want true")
	}
	if s.ImagePresent() {
		t.Error("ImagePresent() = true, want false")
	}
	if !s.LastOK() {
		t.Error("LastOK() = false, want true")
	}
	if s.Busy() {
		t.Error("Busy() = true, want false")
	}
}

func TestStatusByte(t *testing.T) {
	tests := []struct {
		name   string
		media  bool
		image  bool
		lastOK bool
		count  int
		want   byte
	}{
		{"one image ok", true, true, true, 1, 0x10},
		{"no images", true, false, true, 0, 0x02},
		{"last failed", true, true, false, 3, 0x34},
		{"no media", false, true, true, 2, 0x21},
		{"everything wrong", false, false, false, 0, 0x07},
		{"full table", true, true, true, 15, 0xF0},
		{"count masked", true, true, true, 16, 0x00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession()
			s.SetMediaPresent(tt.media)
			s.SetImagePresent(tt.image)
			s.SetLastOK(tt.lastOK)
			if got := s.StatusByte(tt.count); got != tt.want {
				t.Errorf("StatusByte(%d) = %#02x, want %#02x", tt.count, got, tt.want)
			}
			if got := s.StatusByte(tt.count); got&0x08 != 0 {
				t.Errorf("StatusByte(%d) bit 3 set", tt.count)
			}
		})
	}
}

func TestBusyByte(t *testing.T) {
	s := NewSession()
	if got := s.BusyByte(); got != BusyNo {
		t.Errorf("BusyByte() = %d, want %d", got, BusyNo)
	}
	s.SetBusy(true)
	if got := s.BusyByte(); got != BusyYes {
		t.Errorf("BusyByte() = %d, want %d", got, BusyYes)
	}
	s.SetBusy(false)
	if got := s.BusyByte(); got != BusyNo {
		t.Errorf("BusyByte() = %d, want %d", got, BusyNo)
	}
}
