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

// Package count aggregates FANSe3 alignment records into per-feature
// read counts and derives RPKM and TPM expression values from them.
package count

import (
	"fmt"

	"github.com/fansetools/fansekit/fanse"
	"github.com/fansetools/fansekit/fasta"
)

// A Policy determines how a multi-mapping read is credited to the
// loci it aligns to.
type Policy int

// The multi-mapping policies.
//
// PrimaryOnly credits the full read to its first reported locus.
// UniformSplit credits 1/n to each of the n loci. FullCredit credits
// the full read to every distinct referenced feature, so column sums
// exceed the number of reads when multi-mappers are present.
const (
	PrimaryOnly Policy = iota
	UniformSplit
	FullCredit
)

func (policy Policy) String() string {
	switch policy {
	case PrimaryOnly:
		return "primary"
	case UniformSplit:
		return "split"
	case FullCredit:
		return "all"
	default:
		return fmt.Sprintf("Policy(%d)", int(policy))
	}
}

// ParsePolicy parses a multi-mapping policy name as accepted on the
// command line.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "primary":
		return PrimaryOnly, nil
	case "split":
		return UniformSplit, nil
	case "all":
		return FullCredit, nil
	default:
		return 0, fmt.Errorf("invalid multi-mapping policy %v, must be one of primary, split, or all", s)
	}
}

// A MissingPolicy determines what happens when a record refers to a
// feature that is absent from the length table.
type MissingPolicy int

// The missing-feature policies. MissingAbort fails the run with a
// *fasta.LookupError; MissingDrop skips the record and tallies it.
const (
	MissingAbort MissingPolicy = iota
	MissingDrop
)

// ParseMissingPolicy parses a missing-feature policy name as accepted
// on the command line.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch s {
	case "abort":
		return MissingAbort, nil
	case "drop":
		return MissingDrop, nil
	default:
		return 0, fmt.Errorf("invalid missing-feature policy %v, must be abort or drop", s)
	}
}

// An ArithmeticError reports an expression value that cannot be
// computed, such as an RPKM over a zero-length feature or an empty
// library.
type ArithmeticError struct {
	Quantity string
	Feature  string
	Msg      string
}

func (err *ArithmeticError) Error() string {
	if err.Feature == "" {
		return fmt.Sprintf("cannot compute %v: %v", err.Quantity, err.Msg)
	}
	return fmt.Sprintf("cannot compute %v for %v: %v", err.Quantity, err.Feature, err.Msg)
}

// A Table accumulates per-feature read counts under a fixed pair of
// policies. Tables for the same policies can be merged, and merging is
// commutative up to floating-point rounding.
type Table struct {
	Policy      Policy
	Missing     MissingPolicy
	Counts      map[string]float64
	UniqueReads int64
	MultiReads  int64
	Dropped     int64
}

// NewTable allocates and initializes an empty count table.
func NewTable(policy Policy, missing MissingPolicy) *Table {
	return &Table{
		Policy:  policy,
		Missing: missing,
		Counts:  make(map[string]float64),
	}
}

// Add credits one record to the table. When a reference table is
// given, every locus is checked against it first; a record touching
// an unknown feature either fails the run or is dropped in full,
// depending on the missing-feature policy. A record is never
// partially credited.
func (table *Table) Add(rec *fanse.Record, ref *fasta.Table) error {
	if ref != nil {
		for _, locus := range rec.Loci {
			if _, found := ref.Length(locus.RefName); !found {
				if table.Missing == MissingDrop {
					table.Dropped++
					return nil
				}
				return fmt.Errorf("read %v: %w", rec.ReadID, &fasta.LookupError{Name: locus.RefName})
			}
		}
	}
	if rec.IsMulti() {
		table.MultiReads++
	} else {
		table.UniqueReads++
	}
	switch table.Policy {
	case PrimaryOnly:
		table.Counts[rec.Loci[0].RefName]++
	case UniformSplit:
		credit := 1 / float64(len(rec.Loci))
		for _, locus := range rec.Loci {
			table.Counts[locus.RefName] += credit
		}
	case FullCredit:
		// full credit goes to each distinct feature once, even when a
		// read has several loci on the same feature
		credited := make(map[string]bool, len(rec.Loci))
		for _, locus := range rec.Loci {
			if !credited[locus.RefName] {
				credited[locus.RefName] = true
				table.Counts[locus.RefName]++
			}
		}
	}
	return nil
}

// Merge adds the contents of another table into this one. The other
// table must have been built under the same policies.
func (table *Table) Merge(other *Table) {
	for name, count := range other.Counts {
		table.Counts[name] += count
	}
	table.UniqueReads += other.UniqueReads
	table.MultiReads += other.MultiReads
	table.Dropped += other.Dropped
}

// Total returns the sum of all counts in the table. Under the primary
// and split policies this equals the number of credited reads.
func (table *Table) Total() float64 {
	var total float64
	for _, count := range table.Counts {
		total += count
	}
	return total
}

// Reads returns the number of records credited to the table.
func (table *Table) Reads() int64 {
	return table.UniqueReads + table.MultiReads
}

// GeneTable folds the per-feature counts into per-gene counts using
// the gene mapping attached to the reference table. Features without
// a mapping keep their own name.
func (table *Table) GeneTable(ref *fasta.Table) *Table {
	genes := NewTable(table.Policy, table.Missing)
	for name, count := range table.Counts {
		genes.Counts[ref.Gene(name)] += count
	}
	genes.UniqueReads = table.UniqueReads
	genes.MultiReads = table.MultiReads
	genes.Dropped = table.Dropped
	return genes
}

// RPKM computes reads per kilobase per million for every counted
// feature. The length table must cover every feature with a nonzero
// length, and the library must be nonempty.
func (table *Table) RPKM(ref *fasta.Table) (map[string]float64, error) {
	total := table.Total()
	if total == 0 {
		return nil, &ArithmeticError{Quantity: "RPKM", Msg: "empty library"}
	}
	millions := total / 1e6
	rpkm := make(map[string]float64, len(table.Counts))
	for name, count := range table.Counts {
		length, found := ref.Length(name)
		if !found {
			return nil, &fasta.LookupError{Name: name}
		}
		if length == 0 {
			return nil, &ArithmeticError{Quantity: "RPKM", Feature: name, Msg: "zero feature length"}
		}
		rpkm[name] = count / (float64(length) / 1000 * millions)
	}
	return rpkm, nil
}

// TPM computes transcripts per million for every counted feature.
// Like RPKM values, TPM values are scale-free between samples, but
// they additionally sum to one million within a sample.
func (table *Table) TPM(ref *fasta.Table) (map[string]float64, error) {
	rpk := make(map[string]float64, len(table.Counts))
	var sum float64
	for name, count := range table.Counts {
		length, found := ref.Length(name)
		if !found {
			return nil, &fasta.LookupError{Name: name}
		}
		if length == 0 {
			return nil, &ArithmeticError{Quantity: "TPM", Feature: name, Msg: "zero feature length"}
		}
		value := count / (float64(length) / 1000)
		rpk[name] = value
		sum += value
	}
	if sum == 0 {
		return nil, &ArithmeticError{Quantity: "TPM", Msg: "empty library"}
	}
	tpm := make(map[string]float64, len(rpk))
	for name, value := range rpk {
		tpm[name] = value / sum * 1e6
	}
	return tpm, nil
}
