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
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fansetools/fansekit/fanse"
	"github.com/fansetools/fansekit/fasta"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := ioutil.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadGeneMap(t *testing.T, ref *fasta.Table, content string) {
	t.Helper()
	ref.LoadGeneMap(writeTempFile(t, "genes.tsv", content))
}

const countInput = "r1\tACGT\nF\tNM_1\t0\t10\t1\n" +
	"r2\tACGT\nF,F\tNM_1,NM_2\t0,0\t20,30\t2\n" +
	"r3\tACGT\nR\tNM_2\t1\t40\t1\n"

func TestCountFile(t *testing.T) {
	name := writeTempFile(t, "sample.fanse3", countInput)
	ref := fasta.NewTable()
	ref.Add("NM_1", 1000)
	ref.Add("NM_2", 2000)

	table, err := File(name, fanse.Conf{ExpandLoci: true}, UniformSplit, MissingAbort, ref)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(table.Counts["NM_1"], 1.5) || !almostEqual(table.Counts["NM_2"], 1.5) {
		t.Error("wrong counts", table.Counts)
	}
	if table.UniqueReads != 2 || table.MultiReads != 1 {
		t.Error("wrong tallies")
	}
}

func TestCountFiles(t *testing.T) {
	ref := fasta.NewTable()
	ref.Add("NM_1", 1000)
	ref.Add("NM_2", 2000)

	names := []string{
		writeTempFile(t, "a.fanse3", countInput),
		writeTempFile(t, "b.fanse3", "r4\tACGT\nF\tNM_1\t0\t50\t1\n"),
	}
	table, err := Files(names, fanse.Conf{ExpandLoci: true}, PrimaryOnly, MissingAbort, ref)
	if err != nil {
		t.Fatal(err)
	}
	if table.Counts["NM_1"] != 3 || table.Counts["NM_2"] != 1 {
		t.Error("wrong merged counts", table.Counts)
	}
	if table.Reads() != 4 {
		t.Error("wrong merged tallies")
	}
}

func TestCountFileAborts(t *testing.T) {
	name := writeTempFile(t, "sample.fanse3", "r1\tACGT\nF\tNM_unknown\t0\t10\t1\n")
	ref := fasta.NewTable()
	ref.Add("NM_1", 1000)
	if _, err := File(name, fanse.Conf{ExpandLoci: true}, PrimaryOnly, MissingAbort, ref); err == nil {
		t.Error("unknown reference accepted")
	}
}

func TestWriteReport(t *testing.T) {
	ref := fasta.NewTable()
	ref.Add("NM_1", 1000)
	ref.Add("NM_2", 2000)

	table := NewTable(PrimaryOnly, MissingAbort)
	for i := 0; i < 6; i++ {
		mustAdd(t, table, uniqueRecord("r", "NM_1"), ref)
	}
	for i := 0; i < 4; i++ {
		mustAdd(t, table, uniqueRecord("r", "NM_2"), ref)
	}

	name := filepath.Join(t.TempDir(), "counts.tsv")
	out, err := fanse.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	if err := table.Write(out, ref, WriteOpts{RPKM: true, TPM: true}); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	content, err := ioutil.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatal("wrong number of report lines", lines)
	}
	if lines[0] != "#feature\tcount\trpkm\ttpm" {
		t.Error("wrong header line", lines[0])
	}
	if lines[1] != "NM_1\t6\t600000\t750000" {
		t.Error("wrong report line", lines[1])
	}
	if lines[2] != "NM_2\t4\t200000\t250000" {
		t.Error("wrong report line", lines[2])
	}
}

func TestWriteReportByGene(t *testing.T) {
	ref := fasta.NewTable()
	ref.Add("NM_1", 1000)
	ref.Add("NM_2", 1000)
	loadGeneMap(t, ref, "NM_1\tGENE_A\nNM_2\tGENE_A\n")

	table := NewTable(PrimaryOnly, MissingAbort)
	mustAdd(t, table, uniqueRecord("r1", "NM_1"), ref)
	mustAdd(t, table, uniqueRecord("r2", "NM_2"), ref)

	name := filepath.Join(t.TempDir(), "genes.tsv")
	out, err := fanse.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	if err := table.Write(out, ref, WriteOpts{ByGene: true}); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	content, err := ioutil.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "#feature\tcount\nGENE_A\t2\n" {
		t.Errorf("wrong gene report %q", content)
	}
}
