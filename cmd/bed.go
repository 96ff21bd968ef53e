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

	"github.com/fansetools/fansekit/bed"
	"github.com/fansetools/fansekit/fanse"
)

// BedHelp is the help string for this command.
const BedHelp = "\nbed parameters:\n" +
	"fansekit bed fanse3-file bed-file\n" +
	"[--sorted]\n" +
	"[--align-detail]\n" +
	"[--unique]\n" +
	"[--no-expand]\n" +
	"[--lenient]\n" +
	"[--nr-of-threads number]\n" +
	"[--timed]\n" +
	"[--log-path path]\n" +
	"[--profile path]\n"

// Bed implements the fansekit bed command. It projects FANSe3 records
// onto 6-column BED regions, in input order or coordinate-sorted.
func Bed() {
	var (
		sorted           bool
		nrOfThreads      int
		timed            bool
		logPath, profile string
		conf             fanse.Conf
	)

	var flags flag.FlagSet
	flags.BoolVar(&sorted, "sorted", false, "sort the regions by chromosome, start, and end")
	noExpand := addConfFlags(&flags, &conf)
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to the specified file")
	parseFlags(flags, 4, BedHelp)
	setConf(&conf, noExpand)

	input := getFilename(os.Args[2], BedHelp)
	output := getFilename(os.Args[3], BedHelp)

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

	timedRun(timed, profile, "Projecting FANSe3 records onto BED.", 1, func() {
		writer := &bed.Writer{Out: out, Sorted: sorted}
		if err := in.RunPipeline(writer); err != nil {
			log.Panic(err)
		}
		if err := writer.Flush(); err != nil {
			log.Panic(err)
		}
		if err := out.Close(); err != nil {
			log.Panic(err)
		}
	})
}
