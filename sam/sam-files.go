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
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/fansetools/fansekit/utils"
)

// headerKeyOrder fixes the order of the well-known header fields so
// that generated headers are deterministic and acceptable to common
// downstream tools.
var headerKeyOrder = []string{"ID", "SN", "LN", "VN", "SO", "PN", "CL"}

// FormatString writes a tag:value header field.
func FormatString(out *bufio.Writer, tag, value string) {
	out.WriteByte('\t')
	out.WriteString(tag)
	out.WriteByte(':')
	out.WriteString(value)
}

// FormatHeaderLine writes one @-prefixed header line.
func FormatHeaderLine(out *bufio.Writer, code string, record utils.StringMap) {
	out.WriteString(code)
	for _, key := range headerKeyOrder {
		if value, found := record[key]; found {
			FormatString(out, key, value)
		}
	}
outer:
	for key, value := range record {
		for _, known := range headerKeyOrder {
			if key == known {
				continue outer
			}
		}
		FormatString(out, key, value)
	}
	out.WriteByte('\n')
}

// FormatComment writes one @CO header line.
func FormatComment(out *bufio.Writer, comment string) {
	out.WriteString("@CO")
	out.WriteByte('\t')
	out.WriteString(comment)
	out.WriteByte('\n')
}

// Format writes the header section to the given writer.
func (hdr *Header) Format(out *bufio.Writer) {
	if hdr.HD != nil {
		FormatHeaderLine(out, "@HD", hdr.HD)
	}
	for _, record := range hdr.SQ {
		FormatHeaderLine(out, "@SQ", record)
	}
	for _, record := range hdr.PG {
		FormatHeaderLine(out, "@PG", record)
	}
	for _, comment := range hdr.CO {
		FormatComment(out, comment)
	}
}

// FormatTag appends an optional field to a byte slice representation
// of an alignment line.
func FormatTag(out []byte, tag utils.Symbol, value interface{}) ([]byte, error) {
	out = append(out, '\t')
	out = append(out, *tag...)

	switch val := value.(type) {
	case byte:
		out = append(append(out, ":A:"...), val)
	case int32:
		out = strconv.AppendInt(append(out, ":i:"...), int64(val), 10)
	case float32:
		out = strconv.AppendFloat(append(out, ":f:"...), float64(val), 'g', -1, 32)
	case string:
		out = append(append(out, ":Z:"...), val...)
	default:
		return nil, fmt.Errorf("unknown SAM alignment TAG type %v", value)
	}

	return out, nil
}

// Format appends the byte slice representation of an alignment line,
// including the trailing newline.
func (aln *Alignment) Format(out []byte) ([]byte, error) {
	out = append(append(out, aln.QNAME...), '\t')
	out = append(strconv.AppendUint(out, uint64(aln.FLAG), 10), '\t')
	out = append(append(out, aln.RNAME...), '\t')
	out = append(strconv.AppendInt(out, int64(aln.POS), 10), '\t')
	out = append(strconv.AppendUint(out, uint64(aln.MAPQ), 10), '\t')
	out = append(append(out, aln.CIGAR...), '\t')
	out = append(append(out, aln.RNEXT...), '\t')
	out = append(strconv.AppendInt(out, int64(aln.PNEXT), 10), '\t')
	out = append(strconv.AppendInt(out, int64(aln.TLEN), 10), '\t')
	out = append(append(out, aln.SEQ...), '\t')
	out = append(out, aln.QUAL...)

	var err error
	for _, entry := range aln.TAGS {
		if out, err = FormatTag(out, entry.Key, entry.Value); err != nil {
			return nil, err
		}
	}

	return append(out, '\n'), nil
}

// An OutputFile represents a SAM or BAM file for output.
type OutputFile struct {
	wc io.WriteCloser
	*bufio.Writer
	*exec.Cmd
}

// SAM file extensions.
const (
	SamExt = ".sam"
	BamExt = ".bam"
)

// Create opens a SAM file for output. If the filename extension is
// .bam, the output is piped through samtools for compression. If the
// name is "/dev/stdout", then the output is written to os.Stdout.
func Create(name string) (*OutputFile, error) {
	switch filepath.Ext(name) {
	case BamExt:
		args := append([]string{"view", "-Sb", "-@"}, strconv.FormatInt(int64(runtime.GOMAXPROCS(0)), 10))
		args = append(args, []string{"-o", name, "-"}...)
		cmd := exec.Command("samtools", args...)
		inPipe, err := cmd.StdinPipe()
		if err != nil {
			return nil, err
		}
		if err := cmd.Start(); err != nil {
			return nil, err
		}
		return &OutputFile{inPipe, bufio.NewWriter(inPipe), cmd}, nil
	default:
		if name == "/dev/stdout" {
			return &OutputFile{os.Stdout, bufio.NewWriter(os.Stdout), nil}, nil
		}
		file, err := os.Create(name)
		if err != nil {
			return nil, err
		}
		return &OutputFile{file, bufio.NewWriter(file), nil}, nil
	}
}

// FormatHeader writes the header to the SAM output file.
func (f *OutputFile) FormatHeader(hdr *Header) error {
	hdr.Format(f.Writer)
	return f.Flush()
}

// Close flushes and closes the SAM output file, waiting for the
// samtools process when the output is a BAM file.
func (f *OutputFile) Close() error {
	if err := f.Flush(); err != nil {
		return err
	}
	if f.wc != os.Stdout {
		if err := f.wc.Close(); err != nil {
			return err
		}
	}
	if f.Cmd != nil {
		return f.Wait()
	}
	return nil
}
