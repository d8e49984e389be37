// Package websocket serves live threshold previews over gorilla/websocket.
//
// A Hub owns the connected clients. Each client runs a read pump that hands
// every request frame to the hub's Handler and queues the answer, and a
// write pump that flushes queued frames and pings the peer. Job changes are
// broadcast to all clients as "jobs" messages.
//
// Frames sent to clients share one envelope:
//
//	{"type":"preview","data":{...},"timestamp":"...","trace_id":"..."}
//
// Clients may send {"type":"heartbeat"} to keep an idle connection open.
package websocket
