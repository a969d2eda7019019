// Package image implements the disk image table the controller serves.
//
// A [Table] holds up to 15 images in slots 1 through 15. Slot 0 stands for
// the machine's floppy drive and is never registered. Each image has a
// display name, a capacity in whole megabytes fixed at registration, and a
// [Storage] backend that can be closed and reopened by the client.
//
// Sector addresses are 16-bit, so at most the first 32 MiB of an image is
// reachable. A sector is addressable only when it lies entirely within the
// size recorded at registration.
//
//	table := image.NewTable()
//	idx, _ := table.Register("BOOT.DSK", image.NewMemoryStorage(1<<20))
//	var buf [image.SectorSize]byte
//	err := table.ReadSector(idx, 0, buf[:])
package image
