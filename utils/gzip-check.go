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

package utils

import (
	"bufio"
	"compress/gzip"
	"io"
	"log"
)

// HandleGzip checks if the given reader produces a gzip stream by
// looking at the initial bytes. It then either returns a gzip reader,
// or returns the given reader unchanged. HandleGzip uses Peek.
func HandleGzip(buf *bufio.Reader) io.Reader {
	data, err := buf.Peek(2)
	if err != nil {
		if err == io.EOF {
			return buf
		}
		log.Panic(err)
		return nil
	}
	if data[0] == 0x1f && data[1] == 0x8b {
		r, err := gzip.NewReader(buf)
		if err != nil {
			log.Panic(err)
			return nil
		}
		return r
	}
	return buf
}
