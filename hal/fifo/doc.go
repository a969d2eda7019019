//go:build unix

// Package fifo implements hal.Stream using a pair of named pipes.
//
// This transport is intended for testing and simulation. It lets a client
// process (for example softsd probe, or an emulator of the client machine)
// talk to the controller without a serial cable.
//
// # Layout
//
//	/tmp/softsd/                 # Directory shared by both ends
//	├── client_to_controller     # Requests (client writes, controller reads)
//	└── controller_to_client     # Responses (controller writes, client reads)
//
// Both ends open both pipes with O_RDWR|O_NONBLOCK, so either side can start
// first and neither sees EOF when the other restarts.
//
// # Usage
//
//	ctrl, _ := fifo.Open("/tmp/softsd", fifo.RoleController)
//	defer ctrl.Close()
//
//	cli, _ := fifo.Open("/tmp/softsd", fifo.RoleClient)
//	defer cli.Close()
package fifo
