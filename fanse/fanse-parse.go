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
	"strconv"
	"strings"
)

// A Raw is one unparsed logical record: the read line, the locus
// line, and the number of the read line in the input file.
type Raw struct {
	Head string
	Loc  string
	Line int64
}

func parseCount(field string, line int64, text string) (int32, error) {
	value, err := strconv.ParseInt(field, 10, 32)
	if err != nil || value < 0 {
		return 0, formatErrorf(line, text, "invalid numeric field %v", field)
	}
	return int32(value), nil
}

// expand splits a comma-joined field list and checks its cardinality
// against the locus count n. A single entry is the scalar form the
// aligner emits for fields that are identical across all loci, and is
// broadcast to all of them.
func expand(field string, n int, line int64, text string) ([]string, error) {
	list := strings.Split(field, ",")
	switch {
	case len(list) == n:
		return list, nil
	case len(list) == 1:
		for i := 1; i < n; i++ {
			list = append(list, list[0])
		}
		return list, nil
	default:
		return nil, formatErrorf(line, text, "field lists of unequal length %v and %v", len(list), n)
	}
}

// lociCardinality determines the number of loci materialized in the
// record from the longest of its comma-joined field lists.
func lociCardinality(fields []string) (n int) {
	n = 1
	for _, field := range fields {
		if c := strings.Count(field, ",") + 1; c > n {
			n = c
		}
	}
	return n
}

// ParseRecord turns one raw FANSe3 record into a Record. The aligner
// flag set that produced the file must be supplied in conf; it decides
// which line shapes are valid and cannot be inferred from the record
// itself. Malformed records are reported as *FormatError.
func ParseRecord(conf Conf, raw Raw) (*Record, error) {
	head := strings.Split(raw.Head, "\t")
	if conf.AlignDetail {
		if len(head) != 3 {
			return nil, formatErrorf(raw.Line, raw.Head, "read line with %v fields, expected 3", len(head))
		}
	} else if len(head) != 2 {
		return nil, formatErrorf(raw.Line, raw.Head, "read line with %v fields, expected 2", len(head))
	}
	if head[0] == "" || head[1] == "" {
		return nil, formatErrorf(raw.Line, raw.Head, "empty read identifier or sequence")
	}

	loc := strings.Split(raw.Loc, "\t")
	if len(loc) != 5 {
		return nil, formatErrorf(raw.Line+1, raw.Loc, "locus line with %v fields, expected 5", len(loc))
	}

	n := lociCardinality(loc[:4])

	// The multi-map count states the total number of equally-best
	// loci for the read, so a comma-joined list of counts must repeat
	// one and the same value.
	counts, err := expand(loc[4], n, raw.Line+1, raw.Loc)
	if err != nil {
		return nil, err
	}
	multi, err := parseCount(counts[0], raw.Line+1, raw.Loc)
	if err != nil {
		return nil, err
	}
	for _, count := range counts[1:] {
		if count != counts[0] {
			return nil, formatErrorf(raw.Line+1, raw.Loc, "conflicting multi-map counts %v and %v", counts[0], count)
		}
	}
	if multi < 1 {
		return nil, formatErrorf(raw.Line+1, raw.Loc, "multi-map count %v out of range", multi)
	}
	if conf.UniqueSplit && multi != 1 {
		return nil, formatErrorf(raw.Line+1, raw.Loc, "multi-mapped record with count %v in a unique-split file", multi)
	}
	if !conf.ExpandLoci && n != 1 {
		return nil, formatErrorf(raw.Line+1, raw.Loc, "comma-joined locus fields in a file without multi-locus expansion")
	}

	strands, err := expand(loc[0], n, raw.Line+1, raw.Loc)
	if err != nil {
		return nil, err
	}
	refs, err := expand(loc[1], n, raw.Line+1, raw.Loc)
	if err != nil {
		return nil, err
	}
	mismatches, err := expand(loc[2], n, raw.Line+1, raw.Loc)
	if err != nil {
		return nil, err
	}
	positions, err := expand(loc[3], n, raw.Line+1, raw.Loc)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ReadID:     head[0],
		Seq:        head[1],
		Loci:       make([]Locus, n),
		MultiCount: multi,
	}

	if conf.AlignDetail {
		aligns, err := expand(head[2], n, raw.Line, raw.Head)
		if err != nil {
			return nil, err
		}
		rec.Aligns = aligns
	}

	for i := 0; i < n; i++ {
		var locus Locus
		switch strands[i] {
		case "F":
			locus.Strand = Forward
		case "R":
			locus.Strand = Reverse
		default:
			return nil, formatErrorf(raw.Line+1, raw.Loc, "invalid strand %v", strands[i])
		}
		if refs[i] == "" {
			return nil, formatErrorf(raw.Line+1, raw.Loc, "empty reference name")
		}
		locus.RefName = refs[i]
		if locus.Mismatches, err = parseCount(mismatches[i], raw.Line+1, raw.Loc); err != nil {
			return nil, err
		}
		if locus.Mismatches > int32(len(rec.Seq)) {
			return nil, formatErrorf(raw.Line+1, raw.Loc, "mismatch count %v exceeds read length %v", locus.Mismatches, len(rec.Seq))
		}
		if locus.Pos, err = parseCount(positions[i], raw.Line+1, raw.Loc); err != nil {
			return nil, err
		}
		rec.Loci[i] = locus
	}

	return rec, nil
}

// ParseUnmapped parses one line of an unmapped-reads file: a read
// identifier and its sequence, separated by a tab.
func ParseUnmapped(line string, lineno int64) (*Unmapped, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
		return nil, formatErrorf(lineno, line, "unmapped read line with %v fields, expected 2", len(fields))
	}
	return &Unmapped{ReadID: fields[0], Seq: fields[1]}, nil
}
