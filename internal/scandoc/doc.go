// Package scandoc models nmap scan reports in the object form produced by
// markup-to-object converters that merge attributes into their parent and do
// not force single children into arrays.
//
// In that form nearly every repeated element (host, address, hostname, port,
// script, elem, osmatch, portused, task) is a bare value when it occurred once
// and a sequence otherwise. Such fields are typed as OneOrMany, and callers
// read them only through Items, which always yields a sequence.
//
// # Sources
//
// Unmarshal and Decode accept the object form as JSON. DecodeXML accepts raw
// nmap XML and builds the same object form first. Both return
// ErrMalformedDocument when the input is not a scan document at all; a single
// host that fails to decode is kept, with its error, for the converter to
// report.
package scandoc
