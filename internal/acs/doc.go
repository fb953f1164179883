// Package acs holds the domain model shared by every stage of a summary-file
// extraction: resolved variables, geography records, output rows and the
// column naming policy.
//
// # Pipeline
//
// An extraction runs in a fixed order:
//
//  1. The lookup table is folded into an [Index] of variables grouped by
//     sequence number (package lookup).
//  2. The geography file is decoded into a map of logical record number to
//     [GeographyRecord] (package geography).
//  3. Each sequence's estimate and margin-of-error files are joined against
//     that map to fill [OutputRow] values (package assemble).
//
// Column names are produced by [ColumnName] so the assembler and the README
// writer always agree.
//
// # Error Handling
//
// Failures are reported with the sentinel errors in errors.go and mapped to
// user-facing messages with [MapError]. Codes are grouped by stage:
//
//   - CFG001-CFG003: request configuration
//   - SPEC001: variable specification syntax
//   - IDX001-IDX002: lookup table
//   - GEO001: geography file
//   - DAT001-DAT003: sequence data files
//   - FILE001: missing files
//   - OUT001: output sinks
package acs
