// Package adapter provides the sources of scan documents.
//
// NmapAdapter runs nmap through github.com/Ullaakut/nmap/v3 and maps the
// typed result into a scandoc.Document with FromRun, recording each host's
// object form as its raw data. FileSource reads output saved earlier, either
// nmap XML or its JSON object form, from a file or standard input.
//
// Both implement Source, so the rest of the pipeline does not care where a
// document came from.
package adapter
