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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/exascience/pargo/pipeline"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "input.fanse3")
	if err := ioutil.WriteFile(name, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return name
}

func TestParseRecordsFromFile(t *testing.T) {
	name := writeTempFile(t,
		"r1\tACGT\nF\tNM_1\t0\t10\t1\n"+
			"\n"+
			"r2\tACGTACGT\nR\tNM_2\t1\t30\t1\n")
	f, err := Open(name, Conf{ExpandLoci: true})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	var ids []string
	if err := f.ParseRecords(func(rec *Record) {
		ids = append(ids, rec.ReadID)
	}); err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "r1" || ids[1] != "r2" {
		t.Error("wrong records", ids)
	}
}

func TestDanglingReadLine(t *testing.T) {
	name := writeTempFile(t, "r1\tACGT\nF\tNM_1\t0\t10\t1\nr2\tACGT\n")
	f, err := Open(name, Conf{ExpandLoci: true})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	err = f.ParseRecords(func(*Record) {})
	var ferr *FormatError
	if !errors.As(err, &ferr) {
		t.Errorf("expected a FormatError, got %v", err)
	}
}

func TestLenientSkipsMalformed(t *testing.T) {
	name := writeTempFile(t,
		"r1\tACGT\nX\tNM_1\t0\t10\t1\n"+
			"r2\tACGT\nF\tNM_2\t0\t20\t1\n")
	f, err := Open(name, Conf{ExpandLoci: true, Lenient: true})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	var ids []string
	if err := f.ParseRecords(func(rec *Record) {
		ids = append(ids, rec.ReadID)
	}); err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "r2" {
		t.Error("lenient parsing failed", ids)
	}
}

func TestParseUnmappedReadsFromFile(t *testing.T) {
	name := writeTempFile(t, "u1\tACGT\nu2\tGGCC\n")
	f, err := Open(name, Conf{})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	var reads []*Unmapped
	if err := f.ParseUnmappedReads(func(read *Unmapped) {
		reads = append(reads, read)
	}); err != nil {
		t.Fatal(err)
	}
	if len(reads) != 2 || reads[0].ReadID != "u1" || reads[1].Seq != "GGCC" {
		t.Error("wrong unmapped reads")
	}
}

// collector gathers all records flowing through a pipeline.
type collector struct {
	records []*Record
}

func (c *collector) AddNodes(p *pipeline.Pipeline) {
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		c.records = append(c.records, data.([]*Record)...)
		return data
	})))
}

func TestRunPipeline(t *testing.T) {
	name := writeTempFile(t,
		"r1\tACGT\nF\tNM_1\t0\t10\t1\n"+
			"r2\tACGT\nF,R\tNM_1,NM_2\t0,0\t20,30\t2\n")
	f, err := Open(name, Conf{ExpandLoci: true})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	var c collector
	keepUnique := func(rec *Record) bool { return !rec.IsMulti() }
	if err := f.RunPipeline(&c, keepUnique); err != nil {
		t.Fatal(err)
	}
	if len(c.records) != 1 || c.records[0].ReadID != "r1" {
		t.Error("pipeline filtering failed")
	}
}

func TestOutputFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out.txt")
	out, err := Create(name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := out.WriteString("hello\n"); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
	content, err := ioutil.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "hello\n" {
		t.Error("wrong output content")
	}
	_ = os.Remove(name)
}
