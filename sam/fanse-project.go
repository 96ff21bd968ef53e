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
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/exascience/pargo/pipeline"
	"github.com/google/uuid"
	"github.com/willf/bitset"

	"github.com/fansetools/fansekit/fanse"
	"github.com/fansetools/fansekit/fasta"
	"github.com/fansetools/fansekit/utils"
)

// NewHeaderFromTable generates a SAM header whose @SQ lines describe
// the given reference length table, plus a @PG line identifying this
// run. The @SQ lines preserve the declaration order of the reference.
func NewHeaderFromTable(table *fasta.Table) *Header {
	hdr := NewHeader()
	hdr.EnsureHD()["SO"] = "unsorted"
	for _, name := range table.Names {
		length, _ := table.Length(name)
		sq := utils.StringMap{"SN": name}
		SetSQLN(sq, length)
		hdr.SQ = append(hdr.SQ, sq)
	}
	hdr.PG = append(hdr.PG, utils.StringMap{
		"ID": utils.ProgramName + "-" + uuid.New().String(),
		"PN": utils.ProgramName,
		"VN": utils.ProgramVersion,
	})
	return hdr
}

var complementTable [256]byte

func init() {
	for i := range complementTable {
		complementTable[i] = 'N'
	}
	for from, to := range map[byte]byte{
		'A': 'T', 'a': 'T',
		'T': 'A', 't': 'A',
		'C': 'G', 'c': 'G',
		'G': 'C', 'g': 'C',
	} {
		complementTable[from] = to
	}
}

func reverseComplement(seq string) string {
	complement := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		complement[len(seq)-1-i] = complementTable[seq[i]]
	}
	return string(complement)
}

func isLetter(c byte) bool {
	return ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z')
}

// alignmentCigar decodes a FANSe3 per-base alignment marker string
// into a run-length CIGAR string: '.' is a match, 'x' a mismatch, '-'
// a deletion from the read, any other letter an insertion. The
// offsets of the mismatched read bases are returned as a bit set.
func alignmentCigar(align string) (string, *bitset.BitSet) {
	mismatches := bitset.New(uint(len(align)))
	var cigar []byte
	var current byte
	var count int
	var offset uint
	for i := 0; i < len(align); i++ {
		var op byte
		switch c := align[i]; {
		case c == '.':
			op = 'M'
			offset++
		case c == 'x':
			op = 'X'
			mismatches.Set(offset)
			offset++
		case c == '-':
			op = 'D'
		case isLetter(c):
			op = 'I'
			offset++
		default:
			op = 'S'
			offset++
		}
		if op == current {
			count++
		} else {
			if current != 0 {
				cigar = append(strconv.AppendInt(cigar, int64(count), 10), current)
			}
			current = op
			count = 1
		}
	}
	if current != 0 {
		cigar = append(strconv.AppendInt(cigar, int64(count), 10), current)
	}
	return string(cigar), mismatches
}

// saEntry formats one locus for the SA tag of another locus of the
// same record.
func saEntry(sb *strings.Builder, rec *fanse.Record, index int, cigar string) {
	locus := rec.Loci[index]
	sb.WriteString(locus.RefName)
	sb.WriteByte(',')
	sb.WriteString(strconv.FormatInt(int64(locus.Start(len(rec.Seq))+1), 10))
	sb.WriteByte(',')
	sb.WriteByte(locus.Strand.Sign())
	sb.WriteByte(',')
	sb.WriteString(cigar)
	sb.WriteString(",255,")
	sb.WriteString(strconv.FormatInt(int64(locus.Mismatches), 10))
}

// Project turns one FANSe3 record into its SAM alignment lines, one
// per materialized locus. The first locus is the primary alignment;
// all others are flagged secondary. Positions are the canonical
// 1-based 5'-relative starts, and reverse-strand reads store the
// reverse complement of the read sequence, per SAM convention.
//
// Without alignment detail the CIGAR degrades to a plain full-length
// match; the detailed mismatch placement is simply not present in the
// input then.
func Project(rec *fanse.Record) []*Alignment {
	alns := make([]*Alignment, len(rec.Loci))
	cigars := make([]string, len(rec.Loci))
	plainCigar := strconv.Itoa(len(rec.Seq)) + "M"
	for i, locus := range rec.Loci {
		aln := NewAlignment()
		aln.QNAME = rec.ReadID
		aln.RNAME = locus.RefName
		aln.POS = locus.Start(len(rec.Seq)) + 1
		aln.MAPQ = 255
		aln.RNEXT = "*"
		aln.QUAL = "*"
		mismatches := locus.Mismatches
		if len(rec.Aligns) > i && rec.Aligns[i] != "" {
			var bits *bitset.BitSet
			cigars[i], bits = alignmentCigar(rec.Aligns[i])
			mismatches = int32(bits.Count())
		} else {
			cigars[i] = plainCigar
		}
		aln.CIGAR = cigars[i]
		if locus.Strand == fanse.Reverse {
			aln.FLAG |= Reversed
			aln.SEQ = reverseComplement(rec.Seq)
		} else {
			aln.SEQ = rec.Seq
		}
		if i > 0 {
			aln.FLAG |= Secondary
		}
		aln.TAGS.Set(XM, mismatches)
		aln.TAGS.Set(XN, rec.MultiCount)
		alns[i] = aln
	}
	if len(alns) > 1 {
		var sb strings.Builder
		for i := 1; i < len(alns); i++ {
			if i > 1 {
				sb.WriteByte(';')
			}
			saEntry(&sb, rec, i, cigars[i])
		}
		alns[0].TAGS.Set(SA, sb.String())
	}
	return alns
}

// DropMissing returns a record filter that removes records referring
// to reference names absent from the table, logging a warning for
// each. A record touching an unknown reference is dropped in full,
// like the counting stage drops it, so the record never contributes a
// partial set of alignment lines. It never substitutes a placeholder
// length.
func DropMissing(table *fasta.Table) fanse.RecordFilter {
	return func(rec *fanse.Record) bool {
		for _, locus := range rec.Loci {
			if _, found := table.Length(locus.RefName); !found {
				log.Printf("dropping read %v: %v", rec.ReadID, &fasta.LookupError{Name: locus.RefName})
				return false
			}
		}
		return true
	}
}

// A Writer streams FANSe3 records into a SAM output file.
type Writer struct {
	Out   *OutputFile
	Table *fasta.Table
}

// recordToBytes returns a pargo pipeline.Filter that projects slices
// of FANSe3 records into slices of byte slices, one byte slice per
// record covering all its alignment lines. Unknown reference names
// fail the pipeline with a lookup error; use DropMissing upstream for
// the lenient alternative.
func (w *Writer) recordToBytes() pipeline.Filter {
	return func(p *pipeline.Pipeline, _ pipeline.NodeKind, _ *int) (receiver pipeline.Receiver, _ pipeline.Finalizer) {
		receiver = func(_ int, data interface{}) interface{} {
			recs := data.([]*fanse.Record)
			records := make([][]byte, 0, len(recs))
			for _, rec := range recs {
				for _, locus := range rec.Loci {
					if _, found := w.Table.Length(locus.RefName); !found {
						p.SetErr(fmt.Errorf("read %v: %w", rec.ReadID, &fasta.LookupError{Name: locus.RefName}))
						return records
					}
				}
				var buf []byte
				var err error
				for _, aln := range Project(rec) {
					if buf, err = aln.Format(buf); err != nil {
						p.SetErr(fmt.Errorf("%v in sam.Writer", err))
						return records
					}
				}
				records = append(records, buf)
			}
			return records
		}
		return
	}
}

// AddNodes implements the fanse.RecordOutput interface. The writing
// node is strictly ordered so the SAM lines come out in input order,
// and each record is written as one unit.
func (w *Writer) AddNodes(p *pipeline.Pipeline) {
	p.Add(
		pipeline.LimitedPar(0, w.recordToBytes()),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			for _, record := range data.([][]byte) {
				if _, err := w.Out.Write(record); err != nil {
					p.SetErr(fmt.Errorf("%v, while writing SAM alignment lines to output", err))
					break
				}
			}
			return data
		})),
	)
}
