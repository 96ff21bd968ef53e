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
	"log"

	"github.com/exascience/pargo/pipeline"
)

const (
	minBatchSize = 512
	maxBatchSize = 16384
)

type (
	// A RecordFilter receives a Record which it can modify. It
	// returns true if the record should be kept, and false if the
	// record should be removed.
	RecordFilter func(*Record) bool

	// A RecordOutput can add nodes to the given pargo pipeline that
	// consume batches of parsed records. The output must write each
	// record's projection as one atomic unit, so that an interrupted
	// run never leaves a partially written record behind.
	RecordOutput interface {
		AddNodes(p *pipeline.Pipeline)
	}
)

// RawToRecord returns a pargo pipeline.Filter that parses slices of
// raw FANSe3 records into slices of pointers to freshly allocated
// Record values.
func RawToRecord(conf Conf) pipeline.Filter {
	return func(p *pipeline.Pipeline, _ pipeline.NodeKind, _ *int) (receiver pipeline.Receiver, _ pipeline.Finalizer) {
		receiver = func(_ int, data interface{}) interface{} {
			raws := data.([]Raw)
			recs := make([]*Record, 0, len(raws))
			for _, raw := range raws {
				rec, err := ParseRecord(conf, raw)
				if err != nil {
					if conf.Lenient {
						log.Println("skipping record:", err)
						continue
					}
					p.SetErr(err)
					return recs
				}
				recs = append(recs, rec)
			}
			return recs
		}
		return
	}
}

// ComposeFilters returns a pargo pipeline.Receiver that applies the
// given RecordFilter predicates on the slices of Record pointers it
// receives. ComposeFilters may return nil if all filters are nil.
func ComposeFilters(filters []RecordFilter) (receiver pipeline.Receiver) {
	var recFilters []RecordFilter
	for _, f := range filters {
		if f != nil {
			recFilters = append(recFilters, f)
		}
	}
	if len(recFilters) > 0 {
		receiver = func(_ int, data interface{}) interface{} {
			recs := data.([]*Record)
			i := 0
		recLoop:
			for _, rec := range recs {
				for _, filter := range recFilters {
					if !filter(rec) {
						continue recLoop
					}
				}
				recs[i] = rec
				i++
			}
			return recs[:i]
		}
	}
	return
}

// RunPipeline parses the input file and streams its records through a
// pargo pipeline into the given output, applying the given filters,
// if any, to every record first. Working memory stays bounded by the
// pipeline batch size regardless of the input file size.
func (f *InputFile) RunPipeline(output RecordOutput, filters ...RecordFilter) error {
	var p pipeline.Pipeline
	p.Source(f)
	p.SetVariableBatchSize(minBatchSize, maxBatchSize)
	p.Add(pipeline.LimitedPar(0, RawToRecord(f.conf)))
	if receiver := ComposeFilters(filters); receiver != nil {
		p.Add(pipeline.LimitedPar(0, pipeline.Receive(receiver)))
	}
	output.AddNodes(&p)
	p.Run()
	return p.Err()
}
