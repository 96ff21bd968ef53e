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
	"strings"
	"testing"

	"github.com/fansetools/fansekit/fanse"
	"github.com/fansetools/fansekit/fasta"
)

func TestReverseComplement(t *testing.T) {
	if reverseComplement("ACGT") != "ACGT" {
		t.Error("palindrome failed")
	}
	if reverseComplement("AACG") != "CGTT" {
		t.Error("reverse complement failed")
	}
	if reverseComplement("acgn") != "NCGT" {
		t.Error("lowercase and ambiguity codes failed")
	}
}

func TestAlignmentCigar(t *testing.T) {
	cigar, mismatches := alignmentCigar("....x...")
	if cigar != "4M1X3M" {
		t.Error("wrong cigar", cigar)
	}
	if mismatches.Count() != 1 || !mismatches.Test(4) {
		t.Error("wrong mismatch offsets")
	}
	cigar, mismatches = alignmentCigar("..--..A.")
	if cigar != "2M2D2M1I1M" {
		t.Error("wrong cigar with indels", cigar)
	}
	if mismatches.Count() != 0 {
		t.Error("unexpected mismatch offsets")
	}
	cigar, _ = alignmentCigar("........")
	if cigar != "8M" {
		t.Error("wrong all-match cigar", cigar)
	}
}

func TestProjectSingleLocus(t *testing.T) {
	rec := &fanse.Record{
		ReadID:     "2",
		Seq:        "TCTGGCACGGTGAAGAGACATGAGAG",
		Loci:       []fanse.Locus{{RefName: "NR_003287", Strand: fanse.Forward, Pos: 3929}},
		MultiCount: 2,
	}
	alns := Project(rec)
	if len(alns) != 1 {
		t.Fatal("expected one alignment line")
	}
	aln := alns[0]
	if aln.QNAME != "2" || aln.RNAME != "NR_003287" {
		t.Error("wrong names")
	}
	if aln.FLAG != 0 || aln.IsSecondary() || aln.IsReversed() {
		t.Error("wrong flags")
	}
	if aln.POS != 3930 {
		t.Error("expected a 1-based position, got", aln.POS)
	}
	if aln.MAPQ != 255 || aln.RNEXT != "*" || aln.QUAL != "*" {
		t.Error("wrong fixed fields")
	}
	if aln.CIGAR != "26M" {
		t.Error("wrong cigar", aln.CIGAR)
	}
	if xm, found := aln.TAGS.Get(XM); !found || xm.(int32) != 0 {
		t.Error("wrong XM tag")
	}
	if xn, found := aln.TAGS.Get(XN); !found || xn.(int32) != 2 {
		t.Error("wrong XN tag")
	}
	if _, found := aln.TAGS.Get(SA); found {
		t.Error("unexpected SA tag on a single-locus record")
	}
}

func TestProjectMultiLocusWithDetail(t *testing.T) {
	align := "....................x......"
	rec := &fanse.Record{
		ReadID: "369061",
		Seq:    "AGCTGGTACAGAAAGCCAAATTCGCTG",
		Aligns: []string{align, align},
		Loci: []fanse.Locus{
			{RefName: "NM_003404", Strand: fanse.Forward, Mismatches: 1, Pos: 405},
			{RefName: "NM_139323", Strand: fanse.Forward, Mismatches: 1, Pos: 310},
		},
		MultiCount: 2,
	}
	alns := Project(rec)
	if len(alns) != 2 {
		t.Fatal("expected two alignment lines")
	}
	if alns[0].IsSecondary() || !alns[1].IsSecondary() {
		t.Error("wrong secondary flags")
	}
	if alns[0].POS != 406 || alns[1].POS != 311 {
		t.Error("wrong positions")
	}
	for _, aln := range alns {
		if aln.CIGAR != "20M1X6M" {
			t.Error("wrong cigar", aln.CIGAR)
		}
		if xm, found := aln.TAGS.Get(XM); !found || xm.(int32) != 1 {
			t.Error("wrong XM tag")
		}
	}
	sa, found := alns[0].TAGS.Get(SA)
	if !found {
		t.Fatal("missing SA tag")
	}
	if sa.(string) != "NM_139323,311,+,20M1X6M,255,1" {
		t.Error("wrong SA tag", sa)
	}
	if _, found := alns[1].TAGS.Get(SA); found {
		t.Error("unexpected SA tag on a secondary alignment")
	}
}

func TestProjectReverseStrand(t *testing.T) {
	rec := &fanse.Record{
		ReadID:     "r1",
		Seq:        "AACG",
		Loci:       []fanse.Locus{{RefName: "NM_1", Strand: fanse.Reverse, Pos: 100}},
		MultiCount: 1,
	}
	aln := Project(rec)[0]
	if !aln.IsReversed() {
		t.Error("missing reverse flag")
	}
	if aln.SEQ != "CGTT" {
		t.Error("sequence not reverse complemented", aln.SEQ)
	}
	// reported position 100 is the 3' end on the forward strand
	if aln.POS != 98 {
		t.Error("wrong reverse-strand position", aln.POS)
	}
}

func TestNewHeaderFromTable(t *testing.T) {
	table := fasta.NewTable()
	table.Add("NM_1", 1500)
	table.Add("NM_2", 2500)
	hdr := NewHeaderFromTable(table)
	if hdr.HD["SO"] != "unsorted" {
		t.Error("wrong @HD line")
	}
	if len(hdr.SQ) != 2 || hdr.SQ[0]["SN"] != "NM_1" || hdr.SQ[1]["LN"] != "2500" {
		t.Error("wrong @SQ lines")
	}
	if len(hdr.PG) != 1 || !strings.HasPrefix(hdr.PG[0]["ID"], "fansekit-") {
		t.Error("wrong @PG line")
	}
}

func TestDropMissing(t *testing.T) {
	table := fasta.NewTable()
	table.Add("NM_1", 1500)
	filter := DropMissing(table)

	kept := &fanse.Record{
		ReadID:     "r1",
		Seq:        "ACGT",
		Loci:       []fanse.Locus{{RefName: "NM_1", Strand: fanse.Forward, Pos: 20}},
		MultiCount: 1,
	}
	if !filter(kept) {
		t.Fatal("record with only known loci dropped")
	}

	// one unknown locus drops the whole record, no partial set of
	// alignment lines survives
	dropped := &fanse.Record{
		ReadID: "r2",
		Seq:    "ACGT",
		Aligns: []string{"....", "...."},
		Loci: []fanse.Locus{
			{RefName: "NM_1", Strand: fanse.Forward, Pos: 20},
			{RefName: "NM_unknown", Strand: fanse.Forward, Pos: 10},
		},
		MultiCount: 2,
	}
	if filter(dropped) {
		t.Error("record with an unknown locus kept")
	}
	if len(dropped.Loci) != 2 {
		t.Error("dropped record modified")
	}
}

func TestAlignmentFormat(t *testing.T) {
	rec := &fanse.Record{
		ReadID:     "r1",
		Seq:        "ACGT",
		Loci:       []fanse.Locus{{RefName: "NM_1", Strand: fanse.Forward, Pos: 9}},
		MultiCount: 1,
	}
	buf, err := Project(rec)[0].Format(nil)
	if err != nil {
		t.Fatal(err)
	}
	line := string(buf)
	if line != "r1\t0\tNM_1\t10\t255\t4M\t*\t0\t0\tACGT\t*\tXM:i:0\tXN:i:1\n" {
		t.Error("wrong alignment line", line)
	}
}
