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
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"strings"
)

// FANSe3 result file extensions.
const (
	FanseExt  = ".fanse3"
	Fanse2Ext = ".fanse"
)

// An InputFile represents a FANSe3 result file for input.
type InputFile struct {
	rc     io.ReadCloser
	reader *bufio.Reader
	conf   Conf
	lineno int64
	data   []Raw
	err    error
}

// Open opens a FANSe3 result file for input. The aligner flag set
// that produced the file must be supplied, see Conf.
//
// If the name is "/dev/stdin", then the input is read from os.Stdin.
func Open(name string, conf Conf) (*InputFile, error) {
	if name == "/dev/stdin" {
		return &InputFile{rc: os.Stdin, reader: bufio.NewReader(os.Stdin), conf: conf}, nil
	}
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return &InputFile{rc: file, reader: bufio.NewReader(file), conf: conf}, nil
}

// Close closes the FANSe3 input file.
func (f *InputFile) Close() error {
	if f.rc == os.Stdin {
		return nil
	}
	return f.rc.Close()
}

func (f *InputFile) readLine() (string, bool) {
	if f.err != nil {
		return "", false
	}
	line, err := f.reader.ReadString('\n')
	if err != nil {
		if err != io.EOF {
			f.err = err
			return "", false
		}
		if line == "" {
			f.err = io.EOF
			return "", false
		}
	}
	f.lineno++
	return strings.TrimRight(line, "\r\n"), true
}

// nextRaw fetches the next logical record. Blank lines between
// records are skipped; a read line that is not followed by a locus
// line is a FormatError.
func (f *InputFile) nextRaw() (raw Raw, ok bool) {
	head, ok := f.readLine()
	for ok && head == "" {
		head, ok = f.readLine()
	}
	if !ok {
		return raw, false
	}
	line := f.lineno
	loc, ok := f.readLine()
	if !ok {
		if f.err == nil || f.err == io.EOF {
			f.err = formatErrorf(line, head, "read line without a locus line")
		}
		return raw, false
	}
	return Raw{Head: head, Loc: loc, Line: line}, true
}

// Err implements the method of the pipeline.Source interface.
func (f *InputFile) Err() error {
	if f.err != io.EOF {
		return f.err
	}
	return nil
}

// Prepare implements the method of the pipeline.Source interface.
func (f *InputFile) Prepare(_ context.Context) int {
	return -1
}

// Fetch implements the method of the pipeline.Source interface.
func (f *InputFile) Fetch(size int) (fetched int) {
	data := f.data[:0]
	for len(data) < size {
		raw, ok := f.nextRaw()
		if !ok {
			break
		}
		data = append(data, raw)
	}
	f.data = data
	return len(data)
}

// Data implements the method of the pipeline.Source interface.
func (f *InputFile) Data() interface{} {
	data := f.data
	f.data = nil
	return data
}

// ParseRecords sequentially parses all records in the file and calls
// proc for each of them. In lenient mode malformed records are
// skipped with a logged warning; otherwise the first malformed record
// fails the run with a *FormatError.
func (f *InputFile) ParseRecords(proc func(*Record)) error {
	for {
		raw, ok := f.nextRaw()
		if !ok {
			return f.Err()
		}
		rec, err := ParseRecord(f.conf, raw)
		if err != nil {
			if f.conf.Lenient {
				log.Println("skipping record:", err)
				continue
			}
			return err
		}
		proc(rec)
	}
}

// ParseUnmappedReads sequentially parses all reads in an
// unmapped-reads file and calls proc for each of them. The lenient
// policy is the same as for ParseRecords.
func (f *InputFile) ParseUnmappedReads(proc func(*Unmapped)) error {
	for {
		line, ok := f.readLine()
		if !ok {
			return f.Err()
		}
		if line == "" {
			continue
		}
		read, err := ParseUnmapped(line, f.lineno)
		if err != nil {
			if f.conf.Lenient {
				log.Println("skipping unmapped read:", err)
				continue
			}
			return err
		}
		proc(read)
	}
}

// An OutputFile represents a line-oriented text output file.
type OutputFile struct {
	wc io.WriteCloser
	*bufio.Writer
}

// Create opens a text file for output.
//
// If the name is "/dev/stdout", then the output is written to
// os.Stdout.
func Create(name string) (*OutputFile, error) {
	if name == "/dev/stdout" {
		return &OutputFile{os.Stdout, bufio.NewWriter(os.Stdout)}, nil
	}
	file, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	return &OutputFile{file, bufio.NewWriter(file)}, nil
}

// Close flushes and closes the output file.
func (f *OutputFile) Close() error {
	if err := f.Flush(); err != nil {
		return err
	}
	if f.wc == os.Stdout {
		return nil
	}
	return f.wc.Close()
}
