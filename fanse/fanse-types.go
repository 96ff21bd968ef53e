// fansekit: a toolkit for processing FANSe3 alignment results.
// Copyright (c) 2025 Jinan University.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License along with this program. If not, see
// <https://github.com/fansetools/fansekit/blob/master/LICENSE.txt>.

package fanse

import (
	"fmt"
)

// Strand indicates the reference strand a read maps to.
type Strand byte

// Valid Strand values.
const (
	Forward Strand = 'F'
	Reverse Strand = 'R'
)

// Sign returns the BED/SAM strand character for this strand.
func (s Strand) Sign() byte {
	if s == Reverse {
		return '-'
	}
	return '+'
}

// A Locus is one candidate placement of a read on the reference.
//
// Pos is the position as reported by the aligner: for a forward-strand
// placement it is the 0-based offset of the read's 5' end on the
// reference; for a reverse-strand placement it is the coordinate of the
// base that is the read's 3' end on the forward strand. Use Start to
// obtain the canonical 5'-relative reference start.
type Locus struct {
	RefName    string
	Strand     Strand
	Mismatches int32
	Pos        int32
}

// Start returns the canonical 0-based start of the placement on the
// forward reference strand, for a read of the given length.
//
// All downstream projections must derive coordinates through Start so
// that the strand-dependent meaning of the reported position is
// resolved in exactly one place.
func (l Locus) Start(readLen int) int32 {
	if l.Strand == Reverse {
		return l.Pos - int32(readLen) + 1
	}
	return l.Pos
}

// A Record is one mapped read as reported by FANSe3.
//
// Loci holds the materialized placements. When the aligner was run
// without multi-locus expansion, Loci has exactly one entry (the
// first-occurring placement among the ties, a documented tie-breaking
// bias of the aligner) while MultiCount still states the true total
// number of equally-best placements. Consumers must therefore never
// assume len(Loci) == MultiCount.
type Record struct {
	ReadID string
	Seq    string
	// Aligns holds per-locus alignment marker strings ('.' for a
	// match), parallel to Loci. Empty when the aligner was run without
	// alignment detail.
	Aligns     []string
	Loci       []Locus
	MultiCount int32
}

// IsMulti reports whether the read maps to more than one
// equally-best locus, whether or not all of them are materialized.
func (rec *Record) IsMulti() bool {
	return rec.MultiCount > 1
}

// An Unmapped is one read the aligner could not place.
type Unmapped struct {
	ReadID string
	Seq    string
}

// Conf describes the aligner run-time flags that determine the shape
// of the records in a result file. The flags cannot be inferred from
// the records themselves because different flag combinations produce
// identical-looking lines, so every parse entry point takes an
// explicit Conf.
type Conf struct {
	// AlignDetail indicates the file carries a per-base alignment
	// marker string as a third field on each record's first line.
	AlignDetail bool
	// ExpandLoci indicates multi-mapped records materialize all their
	// equally-best loci as comma-joined field lists. When false, every
	// record carries exactly one locus.
	ExpandLoci bool
	// UniqueSplit indicates the aligner wrote unique and multi-mapped
	// reads to separate files and this file holds the unique part, so
	// every record must have a multi-map count of 1.
	UniqueSplit bool
	// Lenient makes parsing skip malformed records with a logged
	// warning instead of failing the run.
	Lenient bool
}

// A FormatError reports a malformed record in a FANSe3 result file.
// It carries the number of the first line of the offending record and
// the raw line content.
type FormatError struct {
	Line int64
	Text string
	Msg  string
}

func (err *FormatError) Error() string {
	return fmt.Sprintf("%v at line %v: %q", err.Msg, err.Line, err.Text)
}

func formatErrorf(line int64, text, format string, args ...interface{}) *FormatError {
	return &FormatError{Line: line, Text: text, Msg: fmt.Sprintf(format, args...)}
}
