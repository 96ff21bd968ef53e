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

// fansekit is a toolkit for processing the result files written by
// the FANSe3 short-read aligner: projecting them onto SAM/BAM and
// BED, recovering the reads as FASTA/FASTQ, and aggregating them into
// per-feature counts and expression values.
//
// Please see https://github.com/fansetools/fansekit for a
// documentation of the tool.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fansetools/fansekit/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: sam, bed, fastx, count, fasta-to-fastq, fastq-to-fasta")
	fmt.Fprint(os.Stderr, "\n", cmd.SamHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.BedHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.FastxHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.CountHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.FastaToFastqHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.FastqToFastaHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "sam":
		cmd.Sam()
	case "bed":
		cmd.Bed()
	case "fastx":
		cmd.Fastx()
	case "count":
		cmd.Count()
	case "fasta-to-fastq":
		cmd.FastaToFastq()
	case "fastq-to-fasta":
		cmd.FastqToFasta()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		log.Printf("Unknown command %v.\n", os.Args[1])
		fmt.Fprint(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}
}
