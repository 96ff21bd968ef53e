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

package count

import (
	"sort"
	"strconv"

	"github.com/exascience/pargo/parallel"
	"github.com/exascience/pargo/pipeline"

	"github.com/fansetools/fansekit/fanse"
	"github.com/fansetools/fansekit/fasta"
	"github.com/fansetools/fansekit/internal"
)

// A Counter counts the records flowing through a record pipeline into
// a table. It implements the fanse.RecordOutput interface.
type Counter struct {
	Ref   *fasta.Table
	Table *Table
}

func (c *Counter) recordsToTable() pipeline.Filter {
	return func(p *pipeline.Pipeline, _ pipeline.NodeKind, _ *int) (receiver pipeline.Receiver, _ pipeline.Finalizer) {
		receiver = func(_ int, data interface{}) interface{} {
			part := NewTable(c.Table.Policy, c.Table.Missing)
			for _, rec := range data.([]*fanse.Record) {
				if err := part.Add(rec, c.Ref); err != nil {
					p.SetErr(err)
					break
				}
			}
			return part
		}
		return
	}
}

// AddNodes implements the method of the fanse.RecordOutput interface.
// Batches are counted into partial tables in parallel, and the
// partial tables are merged sequentially.
func (c *Counter) AddNodes(p *pipeline.Pipeline) {
	p.Add(
		pipeline.LimitedPar(0, c.recordsToTable()),
		pipeline.Seq(pipeline.Receive(func(_ int, data interface{}) interface{} {
			c.Table.Merge(data.(*Table))
			return data
		})),
	)
}

// File counts all records of one FANSe3 result file into a fresh
// table.
func File(name string, conf fanse.Conf, policy Policy, missing MissingPolicy, ref *fasta.Table) (*Table, error) {
	input, err := fanse.Open(name, conf)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()
	counter := &Counter{Ref: ref, Table: NewTable(policy, missing)}
	if err := input.RunPipeline(counter); err != nil {
		return nil, err
	}
	return counter.Table, nil
}

type fileResult struct {
	table *Table
	err   error
}

// Files counts multiple FANSe3 result files in parallel and merges
// the per-file tables into one. When several files fail, one of the
// errors is reported.
func Files(names []string, conf fanse.Conf, policy Policy, missing MissingPolicy, ref *fasta.Table) (*Table, error) {
	result := parallel.RangeReduce(0, len(names), 0, func(low, high int) interface{} {
		table := NewTable(policy, missing)
		for i := low; i < high; i++ {
			part, err := File(names[i], conf, policy, missing, ref)
			if err != nil {
				return fileResult{err: err}
			}
			table.Merge(part)
		}
		return fileResult{table: table}
	}, func(left, right interface{}) interface{} {
		l := left.(fileResult)
		r := right.(fileResult)
		if l.err != nil {
			return l
		}
		if r.err != nil {
			return r
		}
		l.table.Merge(r.table)
		return l
	}).(fileResult)
	return result.table, result.err
}

// WriteOpts selects the columns and the aggregation level of a count
// table report.
type WriteOpts struct {
	RPKM   bool
	TPM    bool
	ByGene bool
}

func appendValue(buf []byte, value float64) []byte {
	if value == float64(int64(value)) {
		return strconv.AppendInt(buf, int64(value), 10)
	}
	return strconv.AppendFloat(buf, value, 'g', 6, 64)
}

// Write reports the table as tab-separated text with a header line,
// one feature per line, sorted by feature name. RPKM and TPM columns
// are computed per feature and, when aggregating by gene, summed over
// the features of each gene.
func (table *Table) Write(out *fanse.OutputFile, ref *fasta.Table, opts WriteOpts) error {
	counts := table.Counts
	var rpkm, tpm map[string]float64
	var err error
	if opts.RPKM {
		if rpkm, err = table.RPKM(ref); err != nil {
			return err
		}
	}
	if opts.TPM {
		if tpm, err = table.TPM(ref); err != nil {
			return err
		}
	}
	if opts.ByGene {
		counts = table.GeneTable(ref).Counts
		rpkm = foldByGene(rpkm, ref)
		tpm = foldByGene(tpm, ref)
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	buf := internal.ReserveByteBuffer()
	defer internal.ReleaseByteBuffer(buf)
	buf = append(buf, "#feature\tcount"...)
	if opts.RPKM {
		buf = append(buf, "\trpkm"...)
	}
	if opts.TPM {
		buf = append(buf, "\ttpm"...)
	}
	buf = append(buf, '\n')
	if _, err := out.Write(buf); err != nil {
		return err
	}
	for _, name := range names {
		buf = append(buf[:0], name...)
		buf = append(buf, '\t')
		buf = appendValue(buf, counts[name])
		if opts.RPKM {
			buf = append(buf, '\t')
			buf = appendValue(buf, rpkm[name])
		}
		if opts.TPM {
			buf = append(buf, '\t')
			buf = appendValue(buf, tpm[name])
		}
		buf = append(buf, '\n')
		if _, err := out.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func foldByGene(values map[string]float64, ref *fasta.Table) map[string]float64 {
	if values == nil {
		return nil
	}
	folded := make(map[string]float64)
	for name, value := range values {
		folded[ref.Gene(name)] += value
	}
	return folded
}
