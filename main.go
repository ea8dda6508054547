// vmtell - virtualization and sandbox detection.
//
// Reports whether the current machine is a VM, emulator, container, or
// analysis sandbox, with a confidence percentage and the suspected
// product. The detection engine lives in the vmdetect package; this
// binary is a thin reporting wrapper around it.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vmtell/vmtell/core"
	"github.com/vmtell/vmtell/database"
	"github.com/vmtell/vmtell/vmdetect"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	var (
		all         = flag.Bool("all", false, "Enable every technique, including the 5-second cursor wait")
		extreme     = flag.Bool("extreme", false, "Flag the machine as virtual on any single hit")
		noMemo      = flag.Bool("no-memo", false, "Bypass the result cache")
		check       = flag.String("check", "", "Run a single technique by name and print its raw reading")
		list        = flag.Bool("list", false, "List registered techniques and exit")
		record      = flag.Bool("record", false, "Append this run to the scan history")
		history     = flag.Int("history", 0, "Show the newest N history records and exit")
		configPath  = flag.String("config", "", "Scan profile (YAML) path")
		dbPath      = flag.String("db", "", "History database path (default ~/.vmtell/history.db)")
		debug       = flag.Bool("debug", false, "Enable debug logging")
		showVersion = flag.Bool("version", false, "Show version information")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("vmtell v%s\nBuild: %s\nCommit: %s\n", version, buildTime, gitCommit)
		os.Exit(0)
	}

	logger := core.NewLogger(*debug)

	cfg, err := core.LoadConfig(*configPath)
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}
	if *debug || cfg.Logging.Debug {
		logger = core.NewLogger(true)
		vmdetect.SetLogger(logger)
	}

	if *list {
		listTechniques()
		return
	}

	if *history > 0 {
		if err := showHistory(*dbPath, cfg, *history); err != nil {
			logger.Error("Failed to read history: %v", err)
			os.Exit(1)
		}
		return
	}

	if *check != "" {
		f, ok := vmdetect.FlagFromName(*check)
		if !ok {
			logger.Error("Unknown technique: %s", *check)
			os.Exit(2)
		}
		hit, err := vmdetect.Check(f)
		if err != nil {
			logger.Error("Check failed: %v", err)
			os.Exit(2)
		}
		fmt.Printf("%s: %v\n", *check, hit)
		return
	}

	flags, err := cfg.Flags()
	if err != nil {
		logger.Error("Invalid scan profile: %v", err)
		os.Exit(1)
	}
	if *all {
		flags |= vmdetect.ALL
	}
	if *extreme {
		flags |= vmdetect.EXTREME
	}
	if *noMemo {
		flags |= vmdetect.NO_MEMO
	}

	readings, res, err := vmdetect.Report(flags)
	if err != nil {
		logger.Error("Detection failed: %v", err)
		os.Exit(1)
	}

	renderReadings(readings)
	fmt.Println()
	if res.Verdict {
		fmt.Printf("Virtual machine: YES (%d%%, brand: %s)\n", res.Percentage, res.Brand)
	} else {
		fmt.Printf("Virtual machine: no (%d%%)\n", res.Percentage)
	}

	if *record || cfg.History.Record {
		path := *dbPath
		if path == "" {
			path = cfg.History.Path
		}
		db, err := database.GetDB(path)
		if err != nil {
			logger.Error("Failed to open history: %v", err)
			os.Exit(1)
		}
		defer database.CloseDB()
		rec, err := database.SaveResult(db, flags, res)
		if err != nil {
			logger.Error("Failed to record result: %v", err)
			os.Exit(1)
		}
		logger.Info("Recorded scan %s", rec.ID)
	}
}

func listTechniques() {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Technique", "Weight", "Platforms", "Default"})
	for _, name := range vmdetect.ALL.TechniqueNames() {
		f, _ := vmdetect.FlagFromName(name)
		info, _ := vmdetect.TechniqueInfo(f)
		t.AppendRow(table.Row{info.Name, info.Weight, info.Platforms, info.InDefault})
	}
	t.Render()
}

func renderReadings(readings []vmdetect.Reading) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Technique", "Weight", "Result"})
	for _, r := range readings {
		result := "no hit"
		switch {
		case r.Skipped:
			result = "skipped (" + r.SkipReason + ")"
		case r.Fired:
			result = "HIT"
		}
		t.AppendRow(table.Row{r.Name, r.Weight, result})
	}
	t.Render()
}

func showHistory(dbPath string, cfg *core.Config, n int) error {
	if dbPath == "" {
		dbPath = cfg.History.Path
	}
	db, err := database.GetDB(dbPath)
	if err != nil {
		return err
	}
	defer database.CloseDB()

	recs, err := database.RecentScans(db, n)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"When", "Host", "OS", "Verdict", "%", "Brand"})
	for _, r := range recs {
		t.AppendRow(table.Row{
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Hostname, r.OS, r.Verdict, r.Percentage, r.Brand,
		})
	}
	t.Render()
	return nil
}
