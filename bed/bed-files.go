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
	"fmt"

	"github.com/exascience/pargo/pipeline"

	"github.com/fansetools/fansekit/fanse"
	"github.com/fansetools/fansekit/internal"
	"github.com/fansetools/fansekit/utils"
)

// Project turns one FANSe3 record into its BED intervals, one per
// materialized locus. All intervals of a record share the read
// identifier as their name. The interval always covers the full read
// length starting at the canonical 5'-relative position, and the
// score column carries the mismatch count of the locus.
func Project(rec *fanse.Record) []*Region {
	regions := make([]*Region, len(rec.Loci))
	name := rec.ReadID
	for i, locus := range rec.Loci {
		start := locus.Start(len(rec.Seq))
		strand := SF
		if locus.Strand == fanse.Reverse {
			strand = SR
		}
		regions[i] = &Region{
			Chrom:  utils.Intern(locus.RefName),
			Start:  start,
			End:    start + int32(len(rec.Seq)),
			Name:   name,
			Score:  locus.Mismatches,
			Strand: strand,
		}
	}
	return regions
}

// A Writer streams FANSe3 records into a BED output file. In sorted
// mode the regions are collected, sorted by coordinate, and written
// by Flush after the pipeline has run; otherwise they are written in
// input order while streaming.
type Writer struct {
	Out     *fanse.OutputFile
	Sorted  bool
	regions []*Region
}

func recordToRegions() pipeline.Filter {
	return func(p *pipeline.Pipeline, _ pipeline.NodeKind, _ *int) (receiver pipeline.Receiver, _ pipeline.Finalizer) {
		receiver = func(_ int, data interface{}) interface{} {
			recs := data.([]*fanse.Record)
			regions := make([]*Region, 0, len(recs))
			for _, rec := range recs {
				regions = append(regions, Project(rec)...)
			}
			return regions
		}
		return
	}
}

// recordToBytes projects each record into one byte slice covering all
// its interval lines, so that a record is written atomically.
func recordToBytes() pipeline.Filter {
	return func(p *pipeline.Pipeline, _ pipeline.NodeKind, _ *int) (receiver pipeline.Receiver, _ pipeline.Finalizer) {
		receiver = func(_ int, data interface{}) interface{} {
			recs := data.([]*fanse.Record)
			records := make([][]byte, 0, len(recs))
			for _, rec := range recs {
				var buf []byte
				for _, region := range Project(rec) {
					buf = region.Format(buf)
				}
				records = append(records, buf)
			}
			return records
		}
		return
	}
}

// AddNodes implements the fanse.RecordOutput interface.
func (w *Writer) AddNodes(p *pipeline.Pipeline) {
	if w.Sorted {
		p.Add(
			pipeline.LimitedPar(0, recordToRegions()),
			pipeline.Seq(pipeline.Slice(&w.regions)),
		)
		return
	}
	p.Add(
		pipeline.LimitedPar(0, recordToBytes()),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			for _, record := range data.([][]byte) {
				if _, err := w.Out.Write(record); err != nil {
					p.SetErr(fmt.Errorf("%v, while writing BED intervals to output", err))
					break
				}
			}
			return data
		})),
	)
}

// Flush sorts and writes the collected regions in sorted mode; it is
// a no-op while streaming.
func (w *Writer) Flush() error {
	if !w.Sorted {
		return nil
	}
	By(CoordinateLess).ParallelStableSort(w.regions)
	buf := internal.ReserveByteBuffer()
	defer internal.ReleaseByteBuffer(buf)
	for _, region := range w.regions {
		buf = region.Format(buf[:0])
		if _, err := w.Out.Write(buf); err != nil {
			return err
		}
	}
	w.regions = nil
	return nil
}
