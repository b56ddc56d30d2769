// Package convert turns scan documents into inventory host entities.
//
// Conversion is a pure function of the document and Options: it performs no
// I/O, keeps no state between calls, and returns entities in host order.
// Each host is converted inside its own fault boundary (ConvertHost), so a
// malformed host is reported in Report.Failures while the rest of the
// document still converts.
//
// Per host, the converter resolves addresses, extracts open ports, service
// names and script-derived names (afp-serverinfo, nbstat), reads the OS
// fingerprint, and classifies the device from service device-type hints.
package convert
