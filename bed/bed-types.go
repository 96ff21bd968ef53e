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
	"sort"
	"strconv"

	psort "github.com/exascience/pargo/sort"

	"github.com/fansetools/fansekit/utils"
)

// A Region is one 6-column BED interval. See
// https://genome.ucsc.edu/FAQ/FAQformat.html#format1
type Region struct {
	Chrom  utils.Symbol
	Start  int32
	End    int32
	Name   string
	Score  int32
	Strand utils.Symbol
}

// Symbols for the strand field of a Region.
var (
	// Strand forward.
	SF = utils.Intern("+")
	// Strand reverse.
	SR = utils.Intern("-")
)

// Format appends the tab-separated representation of the region,
// including the trailing newline.
func (region *Region) Format(out []byte) []byte {
	out = append(append(out, *region.Chrom...), '\t')
	out = append(strconv.AppendInt(out, int64(region.Start), 10), '\t')
	out = append(strconv.AppendInt(out, int64(region.End), 10), '\t')
	out = append(append(out, region.Name...), '\t')
	out = append(strconv.AppendInt(out, int64(region.Score), 10), '\t')
	out = append(out, *region.Strand...)
	return append(out, '\n')
}

// CoordinateLess orders regions by chromosome name, then start, then
// end.
func CoordinateLess(r1, r2 *Region) bool {
	switch {
	case *r1.Chrom < *r2.Chrom:
		return true
	case *r2.Chrom < *r1.Chrom:
		return false
	case r1.Start != r2.Start:
		return r1.Start < r2.Start
	default:
		return r1.End < r2.End
	}
}

type (
	// By is an ordering predicate on regions.
	By func(r1, r2 *Region) bool

	// RegionSorter sorts regions with a parallel stable sort.
	RegionSorter struct {
		regions []*Region
		by      By
	}
)

// SequentialSort implements the method of the psort.StableSorter interface.
func (s RegionSorter) SequentialSort(i, j int) {
	regions, by := s.regions[i:j], s.by
	sort.Slice(regions, func(i, j int) bool {
		return by(regions[i], regions[j])
	})
}

// NewTemp implements the method of the psort.StableSorter interface.
func (s RegionSorter) NewTemp() psort.StableSorter {
	return RegionSorter{make([]*Region, len(s.regions)), s.by}
}

// Len implements the method of the psort.StableSorter interface.
func (s RegionSorter) Len() int {
	return len(s.regions)
}

// Less implements the method of the psort.StableSorter interface.
func (s RegionSorter) Less(i, j int) bool {
	return s.by(s.regions[i], s.regions[j])
}

// Assign implements the method of the psort.StableSorter interface.
func (s RegionSorter) Assign(p psort.StableSorter) func(i, j, len int) {
	dst, src := s.regions, p.(RegionSorter).regions
	return func(i, j, len int) {
		for k := 0; k < len; k++ {
			dst[i+k] = src[j+k]
		}
	}
}

// ParallelStableSort sorts the given regions according to this
// ordering predicate.
func (by By) ParallelStableSort(regions []*Region) {
	psort.StableSort(RegionSorter{regions, by})
}
