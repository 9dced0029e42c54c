// mwaread ingests one MWA correlator observation and prints a summary of the
// resulting visibility set. Inputs come from a YAML job file, positional
// arguments, or both.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/stat"

	"github.com/uvdata-dev/uvdata/uvdata"
)

const Version = "v0.3.0"

func main() {
	var (
		configFile     = pflag.StringP("config", "c", "", "YAML job file (files, globs, reader options)")
		workers        = pflag.IntP("workers", "j", 0, "Max data files read concurrently (0 = one per CPU)")
		useCotterFlags = pflag.Bool("use-cotter-flags", false, "Accept .mwaf flag files without a warning")
		skipCheck      = pflag.Bool("skip-check", false, "Skip post-read validation")
		quiet          = pflag.BoolP("quiet", "q", false, "Suppress warnings, print the summary only")
		version        = pflag.BoolP("version", "v", false, "Print version and exit")
	)
	pflag.Parse()

	if *version {
		fmt.Printf("mwaread %s\n", Version)
		os.Exit(0)
	}

	cfg := &JobConfig{}
	if *configFile != "" {
		var err error
		cfg, err = LoadJobConfig(*configFile)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	cfg.Files = append(cfg.Files, pflag.Args()...)
	if *workers != 0 {
		cfg.Workers = *workers
	}
	if *useCotterFlags {
		cfg.UseCotterFlags = true
	}
	if *skipCheck {
		cfg.SkipCheck = true
	}

	files, err := cfg.Resolve()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if len(files) == 0 {
		log.Fatal("no input files; pass a job file with -c or list files as arguments")
	}

	uv, warns, err := uvdata.ReadMWACorrFITS(files, uvdata.MWAOptions{
		UseCotterFlags:    cfg.UseCotterFlags,
		SkipCheck:         cfg.SkipCheck,
		SkipAcceptability: cfg.SkipAcceptability,
		Workers:           cfg.Workers,
	})
	if !*quiet {
		for _, w := range warns {
			log.Printf("warning: %s", w)
		}
	}
	if err != nil {
		log.Fatalf("read: %v", err)
	}

	printSummary(uv)
}

func printSummary(uv *uvdata.UVData) {
	flagged := 0
	nsamples := make([]float64, len(uv.Nsamples))
	for i := range uv.Flags {
		if uv.Flags[i] {
			flagged++
		}
		nsamples[i] = float64(uv.Nsamples[i])
	}

	fmt.Printf("telescope:     %s (%s)\n", uv.TelescopeName, uv.ObjectName)
	fmt.Printf("antennas:      %d  baselines: %d  times: %d  freqs: %d  pols: %d\n",
		uv.Nants, uv.Nbls, uv.Ntimes, uv.Nfreqs, uv.Npols)
	if uv.Nfreqs > 0 {
		fmt.Printf("freq span:     %.4f - %.4f MHz (%.0f kHz channels)\n",
			uv.FreqHz[0]/1e6, uv.FreqHz[uv.Nfreqs-1]/1e6, uv.ChannelWidthHz/1e3)
	}
	if uv.Nblts > 0 {
		fmt.Printf("time span:     JD %.6f - %.6f (%.1f s integrations)\n",
			uv.TimeJD[0], uv.TimeJD[uv.Nblts-1], uv.IntegrationTime[0])
	}
	if len(uv.Data) == 0 {
		fmt.Println("visibilities:  0")
		return
	}
	fmt.Printf("visibilities:  %d  flagged: %.2f%%\n",
		len(uv.Data), 100*float64(flagged)/float64(len(uv.Data)))
	fmt.Printf("nsample:       mean %.3f  stddev %.3f\n",
		stat.Mean(nsamples, nil), stat.StdDev(nsamples, nil))
}
