package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"quadview/internal/models"
	"quadview/pkg/config"
	"quadview/pkg/display"
	"quadview/pkg/frameio"
	"quadview/pkg/logging"
	"quadview/pkg/montage"
	"quadview/pkg/pipeline"
	"quadview/pkg/profile"
	"quadview/pkg/split"
)

func main() {
	// Parse command line arguments
	inputDir := flag.String("input", "", "Directory containing quad-view frames (tiff, png or jpeg)")
	outputDir := flag.String("output", "", "Directory for split channels (overrides config)")
	configPath := flag.String("config", "quadview.yaml", "YAML configuration file")
	profilePath := flag.String("profile", "", "TOML profile remembering the selection (overrides config)")
	format := flag.String("format", "", "Output format: tiff, png or archive (overrides config)")
	workers := flag.Int("workers", 0, "Number of frames split in parallel (overrides config)")
	strict := flag.Bool("strict", false, "Reject frames with odd dimensions")
	preview := flag.Bool("preview", false, "Save a montage of the channels split from the first frame")
	saveProfile := flag.Bool("save-profile", false, "Remember the resolved selection in the profile")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *inputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logging.Fatalf("Failed to load config: %v", err)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *profilePath != "" {
		cfg.Profile = *profilePath
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *workers > 0 {
		cfg.Processing.NumWorkers = *workers
	}
	if *strict {
		cfg.Processing.StrictGeometry = true
	}
	if *verbose {
		cfg.Output.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatalf("Invalid configuration: %v", err)
	}

	cfg.Log.SetLogger()
	defer logging.Close()
	logging.SetVerbose(cfg.Output.Verbose)

	prof, err := profile.Load(cfg.Profile)
	if err != nil {
		logging.Fatalf("Failed to load profile: %v", err)
	}
	sel := cfg.ResolveSelection(prof)

	fmt.Println("================================")
	fmt.Println("QUAD VIEW: SPLIT FOUR-CHANNEL FRAMES INTO SEPARATE CHANNELS")
	fmt.Println("================================")
	fmt.Printf("Keeping quadrants: %v\n", sel)

	if *saveProfile {
		prof.PutSelection(sel)
		if err := prof.Save(); err != nil {
			logging.Warningf("Failed to save profile: %v", err)
		} else {
			fmt.Printf("Selection saved to profile: %s\n", prof.Path())
		}
	}

	// Keep the display layout in step with the selection
	displays := display.NewStore(display.Settings{})
	ds, err := displays.ApplySelection(sel)
	if err != nil {
		logging.Warningf("Failed to update display settings: %v", err)
	}
	logging.Debugf("Display settings v%d: %d channels, %v", ds.Version, len(ds.Channels), ds.Mode)

	fmt.Println("Step 1: Loading input frames...")
	frames, err := frameio.LoadDir(*inputDir)
	if err != nil {
		logging.Fatalf("Failed to load frames: %v", err)
	}
	fmt.Printf("Loaded %d frames with dimensions %dx%d\n", len(frames), frames[0].Width, frames[0].Height)
	if frames[0].Width%2 != 0 || frames[0].Height%2 != 0 {
		logging.Warningf("Frame size %dx%d is odd; the last row or column will be dropped",
			frames[0].Width, frames[0].Height)
	}
	if logging.Verbose() {
		for _, q := range sel.Selected() {
			logging.Debugf("%s quadrant crops %v", q.Name, split.Rect(q.Quadrant, frames[0].Width, frames[0].Height))
		}
	}

	// Set up sinks
	var sink pipeline.FrameSink
	var archive *frameio.ArchiveWriter
	var archiveFile *os.File
	switch cfg.Output.Format {
	case config.FormatArchive:
		if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
			logging.Fatalf("Failed to create output directory: %v", err)
		}
		archiveFile, err = os.Create(filepath.Join(cfg.Output.Dir, "frames.qva"))
		if err != nil {
			logging.Fatalf("Failed to create archive: %v", err)
		}
		archive, err = frameio.NewArchiveWriter(archiveFile)
		if err != nil {
			logging.Fatalf("Failed to start archive: %v", err)
		}
		sink = archive
	default:
		dirSink, err := frameio.NewDirSink(cfg.Output.Dir, cfg.Output.Format)
		if err != nil {
			logging.Fatalf("Failed to create output directory: %v", err)
		}
		sink = dirSink
	}

	proc := &pipeline.Processor{
		Selection: sel,
		Strict:    cfg.Processing.StrictGeometry,
		Workers:   cfg.Processing.NumWorkers,
		Frames:    sink,
		Summary:   frameio.SummaryFile{Path: filepath.Join(cfg.Output.Dir, "summary.yaml")},
	}

	fmt.Println("Step 2: Writing channel summary...")
	catalog := models.ChannelCatalog{
		ChannelNames:     cfg.Dataset.ChannelNames,
		AxisOrder:        cfg.Dataset.AxisOrder,
		IntendedChannels: len(cfg.Dataset.ChannelNames),
		ImageWidth:       frames[0].Width,
		ImageHeight:      frames[0].Height,
	}
	summary, err := proc.ProcessSummary(catalog)
	if err != nil {
		logging.Fatalf("Failed to write summary: %v", err)
	}
	fmt.Printf("Channels: %v\n", summary.ChannelNames)
	fmt.Printf("Axis order: %v\n", summary.AxisOrder)

	fmt.Println("Step 3: Splitting frames...")
	startTime := time.Now()
	report, err := proc.ProcessAll(context.Background(), frames)
	if archive != nil {
		if cerr := archive.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if cerr := archiveFile.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		logging.Fatalf("Splitting failed: %v", err)
	}
	processingTime := time.Since(startTime)

	fmt.Printf("\nSplit completed successfully in %.2f seconds!\n", processingTime.Seconds())
	fmt.Printf("Output written to: %s\n\n", cfg.Output.Dir)
	fmt.Printf("Frames in: %d, channel frames out: %d (%s of pixels)\n",
		report.FramesIn, report.FramesOut, humanize.Bytes(uint64(report.BytesOut)))
	if archive != nil {
		fmt.Printf("Archive holds %d frames, %s uncompressed\n",
			archive.Frames(), humanize.Bytes(uint64(archive.RawBytes())))
	}
	for _, ch := range report.Channels {
		fmt.Printf("- channel %d (%s): %d frames, mean %.1f, std %.1f\n",
			ch.Channel, ch.Quadrant, ch.Frames, ch.Mean, ch.StdDev)
	}

	if *preview && sel.Count() > 0 {
		previewFrames := split.Collect(split.Split(frames[0], sel))
		path := filepath.Join(cfg.Output.Dir, "preview.png")
		if err := montage.SaveMontage(path, previewFrames); err != nil {
			logging.Warningf("Failed to save preview: %v", err)
		} else {
			fmt.Printf("\nPreview saved to: %s\n", path)
		}
	}
}
