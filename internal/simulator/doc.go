// Package simulator implements an in-memory Zeptrion device for local testing.
//
// The simulator answers the three endpoints the client drives and keeps the
// resulting state so it can be inspected:
//
//	POST /zrap/sys              cmd=reboot | cmd=factory-default | cmd=network-default
//	POST /zrap/chctrl           cmd1=on&cmd3=off
//	POST /zapi/smartfront/led   [{"id":2,"bg":"#FFFF00"}]
//	GET  /                      WebSocket upgrade
//
// Every other documented path answers 501 Not Implemented.
//
// # WebSocket
//
// Clients connect to the root path. Text messages of the form
// {"pid2":{"bta":"....P...."}} update the button field. After every channel
// change each client receives a push message:
//
//	{"eid1":{"ch":3,"val":100}}
//
// A reboot or reset sends close code 1001 (going away) to every client, the
// way a real device drops its sockets while restarting.
//
// # Usage Example
//
//	srv, err := simulator.New(&simulator.Config{Port: 8080, LogLevel: "info"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
package simulator
