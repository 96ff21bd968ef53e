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

package cmd

import (
	"flag"
	"log"
	"os"
	"runtime"

	"github.com/fansetools/fansekit/fanse"
	"github.com/fansetools/fansekit/fastq"
)

// FastxHelp is the help string for this command.
const FastxHelp = "\nfastx parameters:\n" +
	"fansekit fastx fanse3-file output-file\n" +
	"[--fastq]\n" +
	"[--unmapped]\n" +
	"[--align-detail]\n" +
	"[--unique]\n" +
	"[--no-expand]\n" +
	"[--lenient]\n" +
	"[--nr-of-threads number]\n" +
	"[--timed]\n" +
	"[--log-path path]\n" +
	"[--profile path]\n"

// Fastx implements the fansekit fastx command. It recovers the reads
// from a FANSe3 result file, or from an unmapped-reads file with
// --unmapped, as FASTA or FASTQ. FASTQ qualities are synthetic since
// the source format does not retain them.
func Fastx() {
	var (
		asFastq, unmapped bool
		nrOfThreads       int
		timed             bool
		logPath, profile  string
		conf              fanse.Conf
	)

	var flags flag.FlagSet
	flags.BoolVar(&asFastq, "fastq", false, "write FASTQ instead of FASTA")
	flags.BoolVar(&unmapped, "unmapped", false, "the input is an unmapped-reads file")
	noExpand := addConfFlags(&flags, &conf)
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to the specified file")
	parseFlags(flags, 4, FastxHelp)
	setConf(&conf, noExpand)

	input := getFilename(os.Args[2], FastxHelp)
	output := getFilename(os.Args[3], FastxHelp)

	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
	}

	setLogOutput(logPath)

	in, err := fanse.Open(input, conf)
	if err != nil {
		log.Panic(err)
	}
	defer func() { _ = in.Close() }()
	out, err := fanse.Create(output)
	if err != nil {
		log.Panic(err)
	}

	timedRun(timed, profile, "Recovering reads from FANSe3 results.", 1, func() {
		writer := &fastq.Writer{Out: out, Fastq: asFastq}
		if unmapped {
			err = in.ParseUnmappedReads(func(read *fanse.Unmapped) {
				if err := writer.WriteUnmapped(read); err != nil {
					log.Panic(err)
				}
			})
		} else {
			err = in.RunPipeline(writer)
		}
		if err != nil {
			log.Panic(err)
		}
		if err := out.Close(); err != nil {
			log.Panic(err)
		}
	})
}

// FastaToFastqHelp is the help string for this command.
const FastaToFastqHelp = "\nfasta-to-fastq parameters:\n" +
	"fansekit fasta-to-fastq fasta-file fastq-file\n" +
	"[--log-path path]\n"

// FastaToFastq implements the fansekit fasta-to-fastq command.
func FastaToFastq() {
	var logPath string

	var flags flag.FlagSet
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	parseFlags(flags, 4, FastaToFastqHelp)

	input := getFilename(os.Args[2], FastaToFastqHelp)
	output := getFilename(os.Args[3], FastaToFastqHelp)

	setLogOutput(logPath)

	if err := fastq.FastaToFastq(input, output); err != nil {
		log.Panic(err)
	}
}

// FastqToFastaHelp is the help string for this command.
const FastqToFastaHelp = "\nfastq-to-fasta parameters:\n" +
	"fansekit fastq-to-fasta fastq-file fasta-file\n" +
	"[--log-path path]\n"

// FastqToFasta implements the fansekit fastq-to-fasta command.
func FastqToFasta() {
	var logPath string

	var flags flag.FlagSet
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	parseFlags(flags, 4, FastqToFastaHelp)

	input := getFilename(os.Args[2], FastqToFastaHelp)
	output := getFilename(os.Args[3], FastqToFastaHelp)

	setLogOutput(logPath)

	if err := fastq.FastqToFasta(input, output); err != nil {
		log.Panic(err)
	}
}
