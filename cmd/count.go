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
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fansetools/fansekit/count"
	"github.com/fansetools/fansekit/fanse"
	"github.com/fansetools/fansekit/fasta"
)

// CountHelp is the help string for this command.
const CountHelp = "\ncount parameters:\n" +
	"fansekit count /path/to/input count-file\n" +
	"--reference fasta-or-fai-file\n" +
	"[--policy primary | split | all]\n" +
	"[--on-missing abort | drop]\n" +
	"[--rpkm]\n" +
	"[--tpm]\n" +
	"[--gene-map tsv-file]\n" +
	"[--align-detail]\n" +
	"[--unique]\n" +
	"[--no-expand]\n" +
	"[--lenient]\n" +
	"[--nr-of-threads number]\n" +
	"[--timed]\n" +
	"[--log-path path]\n" +
	"[--profile path]\n"

// inputFiles expands the input argument into the list of FANSe3
// result files to count. A directory contributes all of its .fanse3
// and .fanse files; anything else is taken as a single result file.
func inputFiles(input string) []string {
	info, err := os.Stat(input)
	if err != nil {
		log.Panic(err)
	}
	if !info.IsDir() {
		return []string{input}
	}
	entries, err := ioutil.ReadDir(input)
	if err != nil {
		log.Panic(err)
	}
	var names []string
	for _, entry := range entries {
		switch filepath.Ext(entry.Name()) {
		case fanse.FanseExt, fanse.Fanse2Ext:
			names = append(names, filepath.Join(input, entry.Name()))
		}
	}
	if len(names) == 0 {
		log.Panicf("no FANSe3 result files found in %v", input)
	}
	return names
}

// Count implements the fansekit count command. It aggregates one or
// more FANSe3 result files into per-feature read counts, optionally
// with RPKM and TPM columns and gene-level aggregation.
func Count() {
	var (
		reference, geneMap string
		policy, onMissing  string
		rpkm, tpm          bool
		nrOfThreads        int
		timed              bool
		logPath, profile   string
		conf               fanse.Conf
	)

	var flags flag.FlagSet
	flags.StringVar(&reference, "reference", "", "reference FASTA or FAI file")
	flags.StringVar(&policy, "policy", "primary", "how to credit multi-mapping reads (primary, split, or all)")
	flags.StringVar(&onMissing, "on-missing", "abort", "what to do with records for unknown references (abort or drop)")
	flags.BoolVar(&rpkm, "rpkm", false, "add an RPKM column")
	flags.BoolVar(&tpm, "tpm", false, "add a TPM column")
	flags.StringVar(&geneMap, "gene-map", "", "transcript-to-gene mapping file for gene-level counts")
	noExpand := addConfFlags(&flags, &conf)
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to the specified file")
	parseFlags(flags, 4, CountHelp)
	setConf(&conf, noExpand)

	input := getFilename(os.Args[2], CountHelp)
	output := getFilename(os.Args[3], CountHelp)

	countPolicy, err := count.ParsePolicy(policy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, CountHelp)
		os.Exit(1)
	}
	missing, err := count.ParseMissingPolicy(onMissing)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, CountHelp)
		os.Exit(1)
	}
	if !checkExist("--reference", reference) {
		fmt.Fprint(os.Stderr, CountHelp)
		os.Exit(1)
	}
	if geneMap != "" && !checkExist("--gene-map", geneMap) {
		fmt.Fprint(os.Stderr, CountHelp)
		os.Exit(1)
	}
	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
	}

	setLogOutput(logPath)

	table := fasta.ParseLengths(reference)
	if geneMap != "" {
		table.LoadGeneMap(geneMap)
	}

	names := inputFiles(input)

	timedRun(timed, profile, "Counting FANSe3 records.", 1, func() {
		counts, err := count.Files(names, conf, countPolicy, missing, table)
		if err != nil {
			log.Panic(err)
		}
		log.Printf("Counted %v reads (%v unique, %v multi-mapping, %v dropped).",
			counts.Reads(), counts.UniqueReads, counts.MultiReads, counts.Dropped)
		out, err := fanse.Create(output)
		if err != nil {
			log.Panic(err)
		}
		opts := count.WriteOpts{RPKM: rpkm, TPM: tpm, ByGene: geneMap != ""}
		if err := counts.Write(out, table, opts); err != nil {
			log.Panic(err)
		}
		if err := out.Close(); err != nil {
			log.Panic(err)
		}
	})
}
