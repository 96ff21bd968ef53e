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

package fastq

import (
	"bufio"

	"github.com/fansetools/fansekit/fanse"
	"github.com/fansetools/fansekit/internal"
	"github.com/fansetools/fansekit/utils"
)

// FastaToFastq rewrites FASTA input as FASTQ with synthetic
// qualities.
func FastaToFastq(name, output string) error {
	file := internal.FileOpen(name)
	defer internal.Close(file)
	reader := bufio.NewReader(utils.HandleGzip(bufio.NewReader(file)))
	out, err := fanse.Create(output)
	if err != nil {
		return err
	}
	defer out.Close()
	var werr error
	err = ParseFasta(reader, func(rec FastxRecord) {
		if werr != nil {
			return
		}
		_, werr = out.Write(AppendFastq(nil, rec.Header, rec.Seq))
	})
	if err != nil {
		return err
	}
	return werr
}

// FastqToFasta rewrites FASTQ input as FASTA, discarding qualities.
func FastqToFasta(name, output string) error {
	file := internal.FileOpen(name)
	defer internal.Close(file)
	reader := bufio.NewReader(utils.HandleGzip(bufio.NewReader(file)))
	out, err := fanse.Create(output)
	if err != nil {
		return err
	}
	defer out.Close()
	var werr error
	err = ParseFastq(reader, func(rec FastxRecord) {
		if werr != nil {
			return
		}
		_, werr = out.Write(AppendFasta(nil, rec.Header, rec.Seq))
	})
	if err != nil {
		return err
	}
	return werr
}
