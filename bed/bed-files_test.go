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

package bed

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/fansetools/fansekit/fanse"
	"github.com/fansetools/fansekit/utils"
)

func TestProject(t *testing.T) {
	rec := &fanse.Record{
		ReadID: "r1",
		Seq:    "ACGTACGT",
		Loci: []fanse.Locus{
			{RefName: "NM_1", Strand: fanse.Forward, Mismatches: 1, Pos: 100},
			{RefName: "NM_2", Strand: fanse.Reverse, Mismatches: 0, Pos: 50},
		},
		MultiCount: 2,
	}
	regions := Project(rec)
	if len(regions) != 2 {
		t.Fatal("expected two regions")
	}
	for _, region := range regions {
		if region.End-region.Start != int32(len(rec.Seq)) {
			t.Error("region does not cover the read length")
		}
		if region.Name != "r1" {
			t.Error("wrong region name", region.Name)
		}
	}
	if *regions[0].Chrom != "NM_1" || regions[0].Start != 100 || regions[0].Strand != SF || regions[0].Score != 1 {
		t.Error("wrong forward region", regions[0])
	}
	// reported position 50 is the 3' end on the forward strand
	if *regions[1].Chrom != "NM_2" || regions[1].Start != 43 || regions[1].Strand != SR || regions[1].Score != 0 {
		t.Error("wrong reverse region", regions[1])
	}
}

func TestRegionFormat(t *testing.T) {
	region := &Region{
		Chrom:  utils.Intern("NM_1"),
		Start:  100,
		End:    108,
		Name:   "r1",
		Score:  1,
		Strand: SF,
	}
	if string(region.Format(nil)) != "NM_1\t100\t108\tr1\t1\t+\n" {
		t.Error("wrong region line")
	}
}

func TestCoordinateLess(t *testing.T) {
	a := &Region{Chrom: utils.Intern("NM_1"), Start: 10, End: 20, Strand: SF}
	b := &Region{Chrom: utils.Intern("NM_1"), Start: 15, End: 20, Strand: SF}
	c := &Region{Chrom: utils.Intern("NM_2"), Start: 5, End: 10, Strand: SF}
	d := &Region{Chrom: utils.Intern("NM_1"), Start: 10, End: 30, Strand: SF}
	if !CoordinateLess(a, b) || CoordinateLess(b, a) {
		t.Error("start ordering failed")
	}
	if !CoordinateLess(b, c) || CoordinateLess(c, b) {
		t.Error("chromosome ordering failed")
	}
	if !CoordinateLess(a, d) || CoordinateLess(d, a) {
		t.Error("end ordering failed")
	}
	if CoordinateLess(a, a) {
		t.Error("irreflexivity failed")
	}
}

func TestParallelStableSort(t *testing.T) {
	chroms := []utils.Symbol{utils.Intern("NM_1"), utils.Intern("NM_2"), utils.Intern("NM_3")}
	regions := make([]*Region, 10000)
	for i := range regions {
		start := int32(rand.Intn(100000))
		regions[i] = &Region{
			Chrom:  chroms[rand.Intn(len(chroms))],
			Start:  start,
			End:    start + 50,
			Name:   strconv.Itoa(i),
			Strand: SF,
		}
	}
	By(CoordinateLess).ParallelStableSort(regions)
	for i := 1; i < len(regions); i++ {
		if CoordinateLess(regions[i], regions[i-1]) {
			t.Fatal("regions not sorted at", i)
		}
	}
}
