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

	"github.com/exascience/pargo/pipeline"

	"github.com/fansetools/fansekit/fanse"
	"github.com/fansetools/fansekit/fasta"
	"github.com/fansetools/fansekit/internal"
)

// SetRefIDs assigns each alignment the index of its reference in the
// @SQ lines of the header. Alignments on references the header does
// not declare get a negative rank.
func SetRefIDs(hdr *Header, alns []*Alignment) {
	ranks := make(map[string]int32)
	for _, aln := range alns {
		rank, found := ranks[aln.RNAME]
		if !found {
			rank = int32(hdr.SQIndex(aln.RNAME))
			ranks[aln.RNAME] = rank
		}
		aln.SetREFID(rank)
	}
}

// A Sam materializes the projected alignments of a whole run in
// memory and sorts them by coordinate, for writing a
// coordinate-sorted SAM file. It implements the fanse.RecordOutput
// interface.
type Sam struct {
	Header     *Header
	Table      *fasta.Table
	Alignments []*Alignment
}

// recordToAlignments projects slices of FANSe3 records into slices of
// alignments. Unknown reference names fail the pipeline with a lookup
// error; use DropMissing upstream for the lenient alternative.
func (s *Sam) recordToAlignments() pipeline.Filter {
	return func(p *pipeline.Pipeline, _ pipeline.NodeKind, _ *int) (receiver pipeline.Receiver, _ pipeline.Finalizer) {
		receiver = func(_ int, data interface{}) interface{} {
			recs := data.([]*fanse.Record)
			alns := make([]*Alignment, 0, len(recs))
			for _, rec := range recs {
				for _, locus := range rec.Loci {
					if _, found := s.Table.Length(locus.RefName); !found {
						p.SetErr(fmt.Errorf("read %v: %w", rec.ReadID, &fasta.LookupError{Name: locus.RefName}))
						return alns
					}
				}
				alns = append(alns, Project(rec)...)
			}
			return alns
		}
		return
	}
}

// AddNodes implements the fanse.RecordOutput interface. The
// alignments are collected into memory and sorted by coordinate when
// the pipeline finishes.
func (s *Sam) AddNodes(p *pipeline.Pipeline) {
	p.Add(
		pipeline.LimitedPar(0, s.recordToAlignments()),
		pipeline.Seq(
			pipeline.Slice(&s.Alignments),
			pipeline.Finalize(func() {
				SetRefIDs(s.Header, s.Alignments)
				By(CoordinateLess).ParallelStableSort(s.Alignments)
			}),
		),
	)
}

// alignmentToBytes formats slices of alignments into slices of byte
// slices, one per alignment line.
func alignmentToBytes() pipeline.Filter {
	return func(p *pipeline.Pipeline, _ pipeline.NodeKind, _ *int) (receiver pipeline.Receiver, _ pipeline.Finalizer) {
		receiver = func(_ int, data interface{}) interface{} {
			alns := data.([]*Alignment)
			records := make([][]byte, 0, len(alns))
			for _, aln := range alns {
				record, err := aln.Format(nil)
				if err != nil {
					p.SetErr(fmt.Errorf("%v in sam.alignmentToBytes", err))
					return records
				}
				records = append(records, record)
			}
			return records
		}
		return
	}
}

// Write streams the sorted alignments to the SAM output file. It
// panics on write errors.
func (s *Sam) Write(out *OutputFile) {
	var p pipeline.Pipeline
	p.Source(s.Alignments)
	p.Add(
		pipeline.LimitedPar(0, alignmentToBytes()),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			for _, record := range data.([][]byte) {
				if _, err := out.Write(record); err != nil {
					p.SetErr(fmt.Errorf("%v, while writing sorted SAM alignment lines to output", err))
					break
				}
			}
			return nil
		})),
	)
	internal.RunPipeline(&p)
}
