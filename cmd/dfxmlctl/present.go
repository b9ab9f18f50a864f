package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dfxmlkit/dfxml"
	"github.com/joshuapare/dfxmlkit/imagefile"
	"github.com/joshuapare/dfxmlkit/pkg/types"
	"github.com/joshuapare/dfxmlkit/record"
	"github.com/joshuapare/dfxmlkit/tsk"
)

var (
	presentImage string
	presentIcat  bool
)

func init() {
	cmd := newPresentCmd()
	cmd.Flags().StringVar(&presentImage, "image", "", "Disk image the document describes")
	cmd.Flags().BoolVar(&presentIcat, "icat", false, "Extract compressed files with icat")
	rootCmd.AddCommand(cmd)
}

func newPresentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "present <dfxml>",
		Short: "Check which files can still be read intact from a disk image",
		Long: `The present command reads every non-empty file with a recorded MD5 or
SHA1 from the disk image and compares digests. Files whose contents no
longer match are reported missing.

Example:
  dfxmlctl present image.xml --image disk.raw
  dfxmlctl present image.xml --image disk.raw --icat --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPresent(cmd.Context(), args)
		},
	}
}

type presentJSON struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

const (
	statusPresent = "present"
	statusMissing = "missing"
	statusError   = "error"
)

func runPresent(ctx context.Context, args []string) error {
	imagePath := presentImage
	if imagePath == "" {
		imagePath = cfg.Image
	}
	if imagePath == "" {
		return errors.New("no disk image: pass --image or set image in the config file")
	}
	im, err := imagefile.Open(imagePath)
	if err != nil {
		return err
	}
	defer im.Close()

	src := record.Source{Image: im}
	if presentIcat || cfg.IcatPath != "" {
		src.Extractor = &tsk.Icat{Path: cfg.IcatPath, Image: imagePath}
	}

	in, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	var (
		results []presentJSON
		counts  = map[string]int{}
	)
	err = dfxml.Read(in, func(fo *record.FileObject) error {
		if size, _ := fo.Filesize(); size == 0 || (fo.MD5() == "" && fo.SHA1() == "") {
			return nil
		}
		r := presentJSON{Filename: fo.Filename(), Status: statusMissing}
		ok, err := fo.FilePresent(ctx, src)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.Status, r.Error = statusError, err.Error()
		case ok:
			r.Status = statusPresent
		}
		counts[r.Status]++
		if jsonOut {
			results = append(results, r)
			return nil
		}
		switch r.Status {
		case statusPresent:
			printInfo("%s %s\n", okColor(r.Status), r.Filename)
		case statusMissing:
			printInfo("%s %s\n", badColor(r.Status), r.Filename)
		default:
			printInfo("%s %s: %s\n", warnColor(r.Status), r.Filename, describe(err))
		}
		return nil
	}, dfxmlOptions(dfxml.WithImage(im))...)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	if jsonOut {
		if results == nil {
			results = []presentJSON{}
		}
		return printJSON(results)
	}
	printInfo("present: %d  missing: %d  errors: %d\n",
		counts[statusPresent], counts[statusMissing], counts[statusError])
	return nil
}

// describe shortens the errors a residency check commonly hits.
func describe(err error) string {
	switch {
	case errors.Is(err, types.ErrEncrypted):
		return "encrypted"
	case errors.Is(err, types.ErrUnsupported):
		return "compressed (try --icat)"
	default:
		return err.Error()
	}
}
