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

// Package fasta builds reference length tables from FASTA files, FAI
// index files, and transcript-to-gene mapping files. The tables are
// the only reference information the FANSe3 projectors and counters
// consume; no other package parses sequence or annotation files.
package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/fansetools/fansekit/internal"
	"github.com/fansetools/fansekit/utils"
)

// A LookupError reports a reference/feature name that is absent from
// the length table.
type LookupError struct {
	Name string
}

func (err *LookupError) Error() string {
	return fmt.Sprintf("reference %v absent from the length table", err.Name)
}

// A Table maps reference/feature names to their lengths in bases, and
// optionally to a coarser gene identifier. Names preserves the order
// in which the features were declared in the source file.
type Table struct {
	Names   []string
	lengths map[string]int32
	genes   map[string]string
}

// NewTable allocates and initializes an empty table.
func NewTable() *Table {
	return &Table{lengths: make(map[string]int32)}
}

// Add records a feature and its length. Re-adding a known feature
// overwrites its length but keeps its declaration order.
func (table *Table) Add(name string, length int32) {
	if _, found := table.lengths[name]; !found {
		table.Names = append(table.Names, name)
	}
	table.lengths[name] = length
}

// Length returns the length in bases recorded for the given feature
// name, and whether the feature is known at all. A missing feature is
// never reported as length zero.
func (table *Table) Length(name string) (int32, bool) {
	length, found := table.lengths[name]
	return length, found
}

// Gene returns the gene identifier for the given feature name. If no
// gene mapping was loaded, or the feature has no entry in it, the
// feature maps to itself.
func (table *Table) Gene(name string) string {
	if gene, found := table.genes[name]; found {
		return gene
	}
	return name
}

// HasGeneMap reports whether a transcript-to-gene mapping was loaded.
func (table *Table) HasGeneMap() bool {
	return table.genes != nil
}

// contigFromHeader extracts the first word after '>' as the sequence
// name, like the aligner itself does.
func contigFromHeader(b []byte) string {
	i := 1
	for ; i < len(b); i++ {
		if c := b[i]; c > ' ' {
			break
		}
	}
	j := i + 1
	for ; j < len(b); j++ {
		if c := b[j]; c <= ' ' {
			break
		}
	}
	return string(b[i:j])
}

// FaiExt is the filename extension of FAI index files.
const FaiExt = ".fai"

// ParseLengths builds a length table for the given reference. A file
// with the .fai extension is read as a FASTA index; anything else is
// read as a FASTA file, transparently decompressed when gzipped.
func ParseLengths(filename string) *Table {
	if filepath.Ext(filename) == FaiExt {
		return ParseFai(filename)
	}
	return ParseFasta(filename)
}

// ParseFasta scans a FASTA file and records the length of every
// sequence in it. The sequence data itself is not retained.
func ParseFasta(filename string) *Table {
	f := internal.FileOpen(filename)
	defer internal.Close(f)

	table := NewTable()

	scanner := bufio.NewScanner(utils.HandleGzip(bufio.NewReader(f)))
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	contig := ""
	var length int32
	for scanner.Scan() {
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		if b[0] == '>' {
			if contig != "" {
				table.Add(contig, length)
			}
			contig = contigFromHeader(b)
			if contig == "" {
				log.Panicf("invalid fasta file %v - empty sequence header", filename)
			}
			length = 0
		} else {
			if contig == "" {
				log.Panicf("invalid fasta file %v - missing first header", filename)
			}
			length += int32(len(bytes.TrimRight(b, " \t")))
		}
	}
	if err := scanner.Err(); err != nil {
		log.Panic(err)
	}
	if contig != "" {
		table.Add(contig, length)
	}
	return table
}

// ParseFai parses an FAI index file into a length table.
func ParseFai(filename string) *Table {
	f := internal.FileOpen(filename)
	defer internal.Close(f)

	table := NewTable()

	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		b := bytes.Split(scanner.Bytes(), []byte("\t"))
		if len(b) != 5 {
			log.Panicf("badly formatted fai file %v - invalid number of entries", filename)
		}
		table.Add(string(b[0]), int32(internal.ParseInt(string(b[1]), 10, 32)))
	}

	if err := scanner.Err(); err != nil {
		log.Panic(err)
	}

	return table
}

// LoadGeneMap reads a two-column tab-separated file mapping feature
// (transcript) names to gene identifiers and attaches it to the
// table. Lines starting with '#' are skipped. Two lines mapping the
// same feature to different genes are an error.
func (table *Table) LoadGeneMap(filename string) {
	f := internal.FileOpen(filename)
	defer internal.Close(f)

	genes := make(utils.StringMap)

	scanner := bufio.NewScanner(utils.HandleGzip(bufio.NewReader(f)))

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			log.Panicf("badly formatted gene map file %v - invalid line %q", filename, line)
		}
		if !genes.SetUniqueEntry(fields[0], fields[1]) && genes[fields[0]] != fields[1] {
			log.Panicf("conflicting gene map entries for %v in %v", fields[0], filename)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Panic(err)
	}

	table.genes = genes
}
