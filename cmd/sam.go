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
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/fansetools/fansekit/count"
	"github.com/fansetools/fansekit/fanse"
	"github.com/fansetools/fansekit/fasta"
	"github.com/fansetools/fansekit/sam"
)

// SamHelp is the help string for this command.
const SamHelp = "\nsam parameters:\n" +
	"fansekit sam fanse3-file sam-file\n" +
	"--reference fasta-or-fai-file\n" +
	"[--align-detail]\n" +
	"[--unique]\n" +
	"[--no-expand]\n" +
	"[--lenient]\n" +
	"[--on-missing abort | drop]\n" +
	"[--sorted]\n" +
	"[--nr-of-threads number]\n" +
	"[--timed]\n" +
	"[--log-path path]\n" +
	"[--profile path]\n"

// Sam implements the fansekit sam command. It projects FANSe3 records
// onto SAM alignment lines; a sam-file name with a .bam extension
// pipes the output through samtools for BAM compression. With
// --sorted the alignments are collected in memory and written in
// coordinate order instead of input order.
func Sam() {
	var (
		reference, onMissing string
		sorted               bool
		nrOfThreads          int
		timed                bool
		logPath, profile     string
		conf                 fanse.Conf
	)

	var flags flag.FlagSet
	flags.StringVar(&reference, "reference", "", "reference FASTA or FAI file")
	noExpand := addConfFlags(&flags, &conf)
	flags.StringVar(&onMissing, "on-missing", "abort", "what to do with records for unknown references (abort or drop)")
	flags.BoolVar(&sorted, "sorted", false, "sort the output by coordinate")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to the specified file")
	parseFlags(flags, 4, SamHelp)
	setConf(&conf, noExpand)

	input := getFilename(os.Args[2], SamHelp)
	output := getFilename(os.Args[3], SamHelp)

	missing, err := count.ParseMissingPolicy(onMissing)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, SamHelp)
		os.Exit(1)
	}
	if !checkExist("--reference", reference) {
		fmt.Fprint(os.Stderr, SamHelp)
		os.Exit(1)
	}
	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
	}

	setLogOutput(logPath)

	table := fasta.ParseLengths(reference)

	in, err := fanse.Open(input, conf)
	if err != nil {
		log.Panic(err)
	}
	defer func() { _ = in.Close() }()
	out, err := sam.Create(output)
	if err != nil {
		log.Panic(err)
	}

	var filters []fanse.RecordFilter
	if missing == count.MissingDrop {
		filters = append(filters, sam.DropMissing(table))
	}

	timedRun(timed, profile, "Projecting FANSe3 records onto SAM.", 1, func() {
		hdr := sam.NewHeaderFromTable(table)
		if sorted {
			hdr.SetHDSO("coordinate")
		}
		if err := out.FormatHeader(hdr); err != nil {
			log.Panic(err)
		}
		if sorted {
			collector := &sam.Sam{Header: hdr, Table: table}
			if err := in.RunPipeline(collector, filters...); err != nil {
				log.Panic(err)
			}
			collector.Write(out)
		} else {
			writer := &sam.Writer{Out: out, Table: table}
			if err := in.RunPipeline(writer, filters...); err != nil {
				log.Panic(err)
			}
		}
		if err := out.Close(); err != nil {
			log.Panic(err)
		}
	})
}
