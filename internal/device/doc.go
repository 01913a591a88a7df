// Package device translates between the opaque raw CoAP status dictionary
// a Philips appliance reports and a stable, named-attribute surface used by
// the rest of the bridge.
//
// A static description table (built in registry.go) maps each attribute
// name to a decoder, an optional encoder, and an admissible-value set. The
// State type is a thin interpreter over that table: it never uses
// reflection and never synthesizes a raw key that the device hasn't
// reported.
package device
