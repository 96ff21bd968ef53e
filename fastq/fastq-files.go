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

// Package fastq projects FANSe3 records and unmapped reads into
// read-oriented FASTA/FASTQ text, and parses that text back. The
// FANSe3 format never carries base qualities, so FASTQ output gets a
// synthetic quality line of uniform filler characters.
package fastq

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/exascience/pargo/pipeline"

	"github.com/fansetools/fansekit/fanse"
)

// DefaultQuality is the synthetic quality character used when the
// source format carries no qualities.
const DefaultQuality = 'I'

// File extensions.
const (
	FastaExt = ".fasta"
	FastqExt = ".fastq"
)

// A FastxRecord is one read in FASTA or FASTQ form. Qualities are not
// retained.
type FastxRecord struct {
	Header string
	Seq    string
}

// AppendFasta appends a 2-line FASTA representation of the read.
func AppendFasta(out []byte, header, seq string) []byte {
	out = append(append(out, '>'), header...)
	out = append(append(out, '\n'), seq...)
	return append(out, '\n')
}

// AppendFastq appends a 4-line FASTQ representation of the read with
// a synthetic quality line of the same length as the sequence.
func AppendFastq(out []byte, header, seq string) []byte {
	out = append(append(out, '@'), header...)
	out = append(append(out, '\n'), seq...)
	out = append(out, "\n+\n"...)
	for range seq {
		out = append(out, DefaultQuality)
	}
	return append(out, '\n')
}

// A Writer streams FANSe3 records into a FASTA or FASTQ output file.
type Writer struct {
	Out   *fanse.OutputFile
	Fastq bool
}

func (w *Writer) recordToBytes() pipeline.Filter {
	return func(p *pipeline.Pipeline, _ pipeline.NodeKind, _ *int) (receiver pipeline.Receiver, _ pipeline.Finalizer) {
		receiver = func(_ int, data interface{}) interface{} {
			recs := data.([]*fanse.Record)
			records := make([][]byte, 0, len(recs))
			for _, rec := range recs {
				var buf []byte
				if w.Fastq {
					buf = AppendFastq(buf, rec.ReadID, rec.Seq)
				} else {
					buf = AppendFasta(buf, rec.ReadID, rec.Seq)
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
	p.Add(
		pipeline.LimitedPar(0, w.recordToBytes()),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			for _, record := range data.([][]byte) {
				if _, err := w.Out.Write(record); err != nil {
					p.SetErr(fmt.Errorf("%v, while writing reads to output", err))
					break
				}
			}
			return data
		})),
	)
}

// WriteUnmapped writes one unmapped read in the writer's output
// format. Round-tripping through ParseFastq/ParseFasta recovers the
// read identifier and sequence exactly.
func (w *Writer) WriteUnmapped(read *fanse.Unmapped) error {
	var buf []byte
	if w.Fastq {
		buf = AppendFastq(buf, read.ReadID, read.Seq)
	} else {
		buf = AppendFasta(buf, read.ReadID, read.Seq)
	}
	_, err := w.Out.Write(buf)
	return err
}

// ParseFasta reads FASTA records and calls proc for each of them.
// Multi-line sequences are joined.
func ParseFasta(reader *bufio.Reader, proc func(FastxRecord)) error {
	var header string
	var seq strings.Builder
	started := false
	flush := func() {
		if started {
			proc(FastxRecord{Header: header, Seq: seq.String()})
			seq.Reset()
		}
	}
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			if line[0] == '>' {
				flush()
				header = strings.TrimSpace(line[1:])
				started = true
			} else {
				if !started {
					return fmt.Errorf("fasta input starts with sequence data %q", line)
				}
				seq.WriteString(line)
			}
		}
		if err == io.EOF {
			flush()
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// ParseFastq reads 4-line FASTQ records and calls proc for each of
// them. Qualities are ignored.
func ParseFastq(reader *bufio.Reader, proc func(FastxRecord)) error {
	for {
		header, err := reader.ReadString('\n')
		header = strings.TrimRight(header, "\r\n")
		if header == "" {
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			continue
		}
		if header[0] != '@' {
			return fmt.Errorf("invalid fastq header line %q", header)
		}
		seq, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		seq = strings.TrimRight(seq, "\r\n")
		plus, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if !strings.HasPrefix(plus, "+") {
			return fmt.Errorf("invalid fastq separator line %q", strings.TrimRight(plus, "\r\n"))
		}
		_, err = reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		proc(FastxRecord{Header: header[1:], Seq: seq})
		if err == io.EOF {
			return nil
		}
	}
}
