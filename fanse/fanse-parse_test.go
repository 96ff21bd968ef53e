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
	"errors"
	"testing"
)

func mustParse(t *testing.T, conf Conf, head, loc string) *Record {
	t.Helper()
	rec, err := ParseRecord(conf, Raw{Head: head, Loc: loc, Line: 1})
	if err != nil {
		t.Fatal(err)
	}
	return rec
}

func mustFail(t *testing.T, conf Conf, head, loc string) {
	t.Helper()
	_, err := ParseRecord(conf, Raw{Head: head, Loc: loc, Line: 1})
	if err == nil {
		t.Fatal("expected a parse error")
	}
	var ferr *FormatError
	if !errors.As(err, &ferr) {
		t.Errorf("expected a FormatError, got %T", err)
	}
}

func TestParseSingleLocus(t *testing.T) {
	rec := mustParse(t, Conf{ExpandLoci: true},
		"2\tTCTGGCACGGTGAAGAGACATGAGAG",
		"F\tNR_003287\t0\t3929\t2")
	if rec.ReadID != "2" {
		t.Error("wrong read identifier")
	}
	if rec.Seq != "TCTGGCACGGTGAAGAGACATGAGAG" {
		t.Error("wrong sequence")
	}
	if len(rec.Loci) != 1 {
		t.Fatal("expected one locus")
	}
	locus := rec.Loci[0]
	if locus.Strand != Forward || locus.RefName != "NR_003287" || locus.Mismatches != 0 || locus.Pos != 3929 {
		t.Error("wrong locus", locus)
	}
	if rec.MultiCount != 2 || !rec.IsMulti() {
		t.Error("wrong multi-map count")
	}
	if rec.Aligns != nil {
		t.Error("unexpected alignment details")
	}
}

func TestParseMultiLocusWithDetail(t *testing.T) {
	rec := mustParse(t, Conf{AlignDetail: true, ExpandLoci: true},
		"369061\tAGCTGGTACAGAAAGCCAAATTCGCTG\t....................x......,....................x......",
		"F,F\tNM_003404,NM_139323\t1,1\t405,310\t2")
	if len(rec.Loci) != 2 {
		t.Fatal("expected two loci")
	}
	if rec.Loci[0].RefName != "NM_003404" || rec.Loci[0].Pos != 405 {
		t.Error("wrong first locus", rec.Loci[0])
	}
	if rec.Loci[1].RefName != "NM_139323" || rec.Loci[1].Pos != 310 {
		t.Error("wrong second locus", rec.Loci[1])
	}
	if rec.Loci[0].Mismatches != 1 || rec.Loci[1].Mismatches != 1 {
		t.Error("wrong mismatch counts")
	}
	if len(rec.Aligns) != 2 || rec.Aligns[0] != rec.Aligns[1] {
		t.Error("wrong alignment details")
	}
	if rec.MultiCount != 2 {
		t.Error("wrong multi-map count")
	}
}

func TestParseScalarBroadcast(t *testing.T) {
	// Fields identical across loci may be written once.
	rec := mustParse(t, Conf{ExpandLoci: true},
		"r1\tACGTACGT",
		"F\tNM_1,NM_2\t0\t10,20\t2")
	if len(rec.Loci) != 2 {
		t.Fatal("expected two loci")
	}
	for _, locus := range rec.Loci {
		if locus.Strand != Forward || locus.Mismatches != 0 {
			t.Error("broadcast failed", locus)
		}
	}
	if rec.Loci[0].Pos != 10 || rec.Loci[1].Pos != 20 {
		t.Error("wrong positions")
	}
}

func TestParseErrors(t *testing.T) {
	conf := Conf{ExpandLoci: true}
	// wrong field counts on either line
	mustFail(t, conf, "r1", "F\tNM_1\t0\t10\t1")
	mustFail(t, conf, "r1\tACGT", "F\tNM_1\t0\t10")
	mustFail(t, conf, "r1\tACGT\t....", "F\tNM_1\t0\t10\t1")
	mustFail(t, Conf{AlignDetail: true, ExpandLoci: true}, "r1\tACGT", "F\tNM_1\t0\t10\t1")
	// unequal list lengths
	mustFail(t, conf, "r1\tACGT", "F,F\tNM_1,NM_2,NM_3\t0\t10,20\t3")
	mustFail(t, conf, "r1\tACGT", "F,R\tNM_1,NM_2\t0,0,0\t10,20\t2")
	// invalid strand and numbers
	mustFail(t, conf, "r1\tACGT", "X\tNM_1\t0\t10\t1")
	mustFail(t, conf, "r1\tACGT", "F\tNM_1\t-1\t10\t1")
	mustFail(t, conf, "r1\tACGT", "F\tNM_1\tzero\t10\t1")
	mustFail(t, conf, "r1\tACGT", "F\tNM_1\t0\t10\t0")
	// more mismatches than bases
	mustFail(t, conf, "r1\tACGT", "F\tNM_1\t5\t10\t1")
	// conflicting multi-map counts
	mustFail(t, conf, "r1\tACGT", "F,F\tNM_1,NM_2\t0,0\t10,20\t2,3")
	// flag-dependent shapes
	mustFail(t, Conf{UniqueSplit: true, ExpandLoci: true}, "r1\tACGT", "F\tNM_1\t0\t10\t2")
	mustFail(t, Conf{}, "r1\tACGT", "F,F\tNM_1,NM_2\t0,0\t10,20\t2")
}

func TestParseNoExpandSingleLocus(t *testing.T) {
	// Without multi-locus expansion a record keeps one locus while the
	// count still states the true number of ties.
	rec := mustParse(t, Conf{}, "r1\tACGT", "F\tNM_1\t0\t10\t3")
	if len(rec.Loci) != 1 || rec.MultiCount != 3 {
		t.Error("wrong locus cardinality")
	}
}

func TestLocusStart(t *testing.T) {
	forward := Locus{Strand: Forward, Pos: 100}
	if forward.Start(26) != 100 {
		t.Error("forward start failed")
	}
	reverse := Locus{Strand: Reverse, Pos: 100}
	if reverse.Start(26) != 75 {
		t.Error("reverse start failed")
	}
	if reverse.Start(1) != 100 {
		t.Error("reverse start of a 1-base read failed")
	}
}

func TestParseUnmapped(t *testing.T) {
	read, err := ParseUnmapped("r7\tACGTACGT", 7)
	if err != nil {
		t.Fatal(err)
	}
	if read.ReadID != "r7" || read.Seq != "ACGTACGT" {
		t.Error("wrong unmapped read")
	}
	if _, err := ParseUnmapped("r7", 7); err == nil {
		t.Error("expected a parse error")
	}
}
