// Package rpcendpoint implements the wire dispatch glue for remote calls:
// registering a server-side trampoline per remote-capable handler keyed
// by message_id, a companion packed-batch trampoline under
// message_id | 0x1, and a typed client that calls a peer by message_id
// over the same net/http transport package cluster's handshake uses.
//
// The handshake itself owns wire-handler ID 0 ; this package
// only ever deals with IDs 1..=0x7FFFFFFF and their |0x1 batch
// companions.
package rpcendpoint
