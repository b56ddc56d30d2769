// Package domain defines the host entity produced from scan results.
//
// A HostEntity is one node of a graph inventory: a stable entity key, the
// fixed entity type, a list of class labels and a flat property bag. The raw
// host record it was built from travels with it so stores can keep it as
// provenance.
//
// # Entity keys
//
// Keys have the form nmap:<hostname>:<mac>:<ip>. A component the host did
// not report renders as "undefined", an empty address collection renders
// empty and a component holding several values is comma-joined, so the same
// host always yields the same key.
//
// # Properties
//
// Properties only holds attributes that were present in the scan. Values are
// strings, numbers, booleans or sequences of those; absent attributes have
// no key rather than an empty value.
//
// This package has no dependencies on storage or transport.
package domain
