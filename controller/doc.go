// Package controller implements the command dispatcher of the serial
// block-storage controller.
//
// A [Controller] reads bytes from a [hal.Stream], frames them into commands
// by opcode, and executes each command against an [image.Table]. Commands
// may arrive split across reads or packed several to a read; an incomplete
// command is held until the rest of it arrives.
//
// # Commands
//
//	Opcode  Name          Request                          Response
//	0xB0    GET_STATUS    op                               status byte
//	0xB1    BUSY          op                               0x00 or 0x01
//	0xB2    READ_SECTOR   op, image, sector LSB, MSB       512 bytes
//	0xB3    WRITE_SECTOR  op, image, sector LSB, MSB, 512  none
//	0xB4    CLOSE_IMAGE   op, image                        none
//	0xB5    OPEN_IMAGE    op, image                        none
//	0xB6    IMAGE_INFO    op, image                        name, capacity MB
//
// Any other byte in opcode position is skipped. Failures are reported only
// through bit 2 of the next GET_STATUS response.
//
// # Usage
//
//	table := image.NewTable()
//	table.Register("BOOT.DSK", storage)
//	ctrl := controller.New(table, stream)
//	err := ctrl.Run(ctx)
package controller
