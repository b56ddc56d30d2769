// Package service ties the pipeline together: it reads a scan from a
// Source, converts it to host entities and either delivers them to the
// inventory store or, on a dry run, writes them out through an exporter.
package service
