// Package client implements the host side of the serial block-storage
// protocol.
//
// A [Client] sends one command at a time over a [hal.Stream] and waits for
// the exact number of response bytes the command produces. It is what the
// retro machine's firmware does, written in Go for diagnostics and tests.
//
//	c := client.New(stream)
//	st, err := c.Status(ctx)
//	if err == nil && st.Images > 0 {
//		info, _ := c.ImageInfo(ctx, 1)
//		fmt.Println(info.Name, info.CapacityMB)
//	}
//
// Commands that fail on the controller produce no error here. Check
// [Status.LastFailed] after the command, as the firmware does.
package client
