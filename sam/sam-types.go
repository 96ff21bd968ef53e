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

package sam

import (
	"errors"
	"log"
	"sort"
	"strconv"

	psort "github.com/exascience/pargo/sort"

	"github.com/fansetools/fansekit/utils"
)

// FileFormatVersion is the SAM file format version written to @HD lines.
const FileFormatVersion = "1.6"

// A Header represents the header section of a SAM file.
type Header struct {
	HD     utils.StringMap
	SQ, PG []utils.StringMap
	CO     []string
}

// NewHeader allocates and initializes an empty header.
func NewHeader() *Header { return &Header{} }

// EnsureHD returns the @HD line of the header, initializing it with
// the file format version if necessary.
func (hdr *Header) EnsureHD() utils.StringMap {
	if hdr.HD == nil {
		hdr.HD = utils.StringMap{"VN": FileFormatVersion}
	}
	return hdr.HD
}

// SetHDSO sets the sorting order in the @HD line of the header.
func (hdr *Header) SetHDSO(value string) {
	hdr.EnsureHD()["SO"] = value
}

// SQIndex returns the index of the @SQ line declaring the given
// reference name, or -1 if the header does not declare it.
func (hdr *Header) SQIndex(sn string) int {
	return utils.Find(hdr.SQ, func(entry utils.StringMap) bool { return entry["SN"] == sn })
}

// SQLN returns the LN entry of an @SQ header line.
func SQLN(record utils.StringMap) (int32, error) {
	ln, found := record["LN"]
	if !found {
		return 0x7FFFFFFF, errors.New("LN entry in a SQ header line missing")
	}
	val, err := strconv.ParseInt(ln, 10, 32)
	return int32(val), err
}

// SetSQLN sets the LN entry of an @SQ header line.
func SetSQLN(record utils.StringMap, value int32) {
	record["LN"] = strconv.FormatInt(int64(value), 10)
}

// An Alignment represents a single alignment line in a SAM file.
type Alignment struct {
	QNAME string
	FLAG  uint16
	RNAME string
	POS   int32
	MAPQ  byte
	CIGAR string
	RNEXT string
	PNEXT int32
	TLEN  int32
	SEQ   string
	QUAL  string
	TAGS  utils.SmallMap
	Temps utils.SmallMap
}

// NewAlignment allocates and initializes a new alignment.
func NewAlignment() *Alignment {
	return &Alignment{
		TAGS:  make(utils.SmallMap, 0, 4),
		Temps: make(utils.SmallMap, 0, 1),
	}
}

// REFID is the temporary field holding the reference rank of an
// alignment for coordinate sorting. It is never written to output.
var REFID = utils.Intern("REFID")

// REFID returns the reference rank of the alignment.
func (aln *Alignment) REFID() int32 {
	refid, ok := aln.Temps.Get(REFID)
	if !ok {
		log.Fatal("REFID in SAM alignment ", aln.QNAME, " not set (use SetRefIDs to fix this)")
	}
	return refid.(int32)
}

// SetREFID sets the reference rank of the alignment.
func (aln *Alignment) SetREFID(refid int32) {
	aln.Temps.Set(REFID, refid)
}

// CoordinateLess orders alignments by reference rank, then position.
// Alignments on references absent from the header sort last.
func CoordinateLess(aln1, aln2 *Alignment) bool {
	refid1 := aln1.REFID()
	refid2 := aln2.REFID()
	switch {
	case refid1 < refid2:
		return refid1 >= 0
	case refid2 < refid1:
		return refid2 < 0
	default:
		return aln1.POS < aln2.POS
	}
}

type (
	// By is an ordering predicate on alignments.
	By func(aln1, aln2 *Alignment) bool

	// AlignmentSorter sorts alignments with a parallel stable sort.
	AlignmentSorter struct {
		alns []*Alignment
		by   By
	}
)

// SequentialSort implements the method of the psort.StableSorter interface.
func (s AlignmentSorter) SequentialSort(i, j int) {
	alns, by := s.alns[i:j], s.by
	sort.Slice(alns, func(i, j int) bool {
		return by(alns[i], alns[j])
	})
}

// NewTemp implements the method of the psort.StableSorter interface.
func (s AlignmentSorter) NewTemp() psort.StableSorter {
	return AlignmentSorter{make([]*Alignment, len(s.alns)), s.by}
}

// Len implements the method of the psort.StableSorter interface.
func (s AlignmentSorter) Len() int {
	return len(s.alns)
}

// Less implements the method of the psort.StableSorter interface.
func (s AlignmentSorter) Less(i, j int) bool {
	return s.by(s.alns[i], s.alns[j])
}

// Assign implements the method of the psort.StableSorter interface.
func (s AlignmentSorter) Assign(p psort.StableSorter) func(i, j, len int) {
	dst, src := s.alns, p.(AlignmentSorter).alns
	return func(i, j, len int) {
		for k := 0; k < len; k++ {
			dst[i+k] = src[j+k]
		}
	}
}

// ParallelStableSort sorts the given alignments according to this
// ordering predicate.
func (by By) ParallelStableSort(alns []*Alignment) {
	psort.StableSort(AlignmentSorter{alns, by})
}

// SAM FLAG bits.
const (
	Multiple      = 0x1
	Proper        = 0x2
	Unmapped      = 0x4
	NextUnmapped  = 0x8
	Reversed      = 0x10
	NextReversed  = 0x20
	First         = 0x40
	Last          = 0x80
	Secondary     = 0x100
	QCFailed      = 0x200
	Duplicate     = 0x400
	Supplementary = 0x800
)

// IsUnmapped reports whether the read was not placed.
func (aln *Alignment) IsUnmapped() bool { return (aln.FLAG & Unmapped) != 0 }

// IsReversed reports whether the read maps to the reverse strand.
func (aln *Alignment) IsReversed() bool { return (aln.FLAG & Reversed) != 0 }

// IsSecondary reports whether this is a secondary alignment.
func (aln *Alignment) IsSecondary() bool { return (aln.FLAG & Secondary) != 0 }

// IsSupplementary reports whether this is a supplementary alignment.
func (aln *Alignment) IsSupplementary() bool { return (aln.FLAG & Supplementary) != 0 }

// Symbols for the optional fields written by the FANSe3 projection.
var (
	// XM is the number of mismatches of the alignment.
	XM = utils.Intern("XM")
	// XN is the total number of equally-best loci reported by the
	// aligner for this read.
	XN = utils.Intern("XN")
	// SA lists the other materialized loci of a multi-mapped read.
	SA = utils.Intern("SA")
)
