package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dfxmlkit/dfxml"
	"github.com/joshuapare/dfxmlkit/extent"
	"github.com/joshuapare/dfxmlkit/record"
)

var (
	extentsAll     bool
	extentsSummary bool
)

func init() {
	cmd := newExtentsCmd()
	cmd.Flags().BoolVar(&extentsAll, "all", false, "Include unallocated files")
	cmd.Flags().BoolVar(&extentsSummary, "summary", false, "Print counts only, not every stored run")
	rootCmd.AddCommand(cmd)
}

func newExtentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extents <dfxml>",
		Short: "Load byte runs into an extent database and report overlaps",
		Long: `The extents command adds the byte runs of every allocated file to an
extent database. Runs that overlap a run already stored are reported as
collisions; the first file to claim a region keeps it. Collisions are
informational and do not make the command fail.

Example:
  dfxmlctl extents image.xml
  dfxmlctl extents image.xml --all --summary
  dfxmlctl extents image.xml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtents(args)
		},
	}
}

type collisionJSON struct {
	Filename  string `json:"filename"`
	ImgOffset int64  `json:"img_offset"`
	Len       int64  `json:"len"`
	OwnerFile string `json:"owner"`
}

type extentsJSON struct {
	SectorSize int64           `json:"sector_size"`
	Runs       int             `json:"runs"`
	Skipped    int             `json:"skipped"`
	Collisions []collisionJSON `json:"collisions"`
}

func runExtents(args []string) error {
	in, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	db := extent.NewDB(cfg.SectorSize)
	owners := map[int64]string{} // stored run image offset -> file name
	res := extentsJSON{SectorSize: cfg.SectorSize, Collisions: []collisionJSON{}}

	err = dfxml.Read(in, func(fo *record.FileObject) error {
		if !extentsAll && !fo.Allocated() {
			return nil
		}
		for _, r := range fo.ByteRuns() {
			if r.Has(extent.FieldLen) && r.Len == 0 {
				res.Skipped++
				continue
			}
			err := db.Add(r)
			var ce *extent.CollisionError
			var ie *extent.InvalidExtentError
			switch {
			case err == nil:
				owners[r.ImgOffset] = fo.Filename()
			case errors.As(err, &ce):
				c := collisionJSON{
					Filename:  fo.Filename(),
					ImgOffset: r.ImgOffset,
					Len:       r.Len,
					OwnerFile: owners[ce.Existing.ImgOffset],
				}
				res.Collisions = append(res.Collisions, c)
				if !jsonOut {
					printInfo("%s %s %s overlaps %s of %s\n",
						warnColor("collision:"), c.Filename, r, ce.Existing, c.OwnerFile)
				}
			case errors.As(err, &ie):
				res.Skipped++
				printVerbose("skipping %s of %s: %s\n", r, fo.Filename(), ie.Reason)
			default:
				return err
			}
		}
		return nil
	}, dfxmlOptions()...)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	res.Runs = db.Len()

	if jsonOut {
		return printJSON(res)
	}
	if !extentsSummary && !quiet {
		if err := db.Report(os.Stdout); err != nil {
			return err
		}
	}
	printInfo("runs: %d  skipped: %d  collisions: %d\n", res.Runs, res.Skipped, len(res.Collisions))
	return nil
}
