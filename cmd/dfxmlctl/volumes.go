package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dfxmlkit/dfxml"
	"github.com/joshuapare/dfxmlkit/record"
)

func init() {
	rootCmd.AddCommand(newVolumesCmd())
}

func newVolumesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "volumes <dfxml>",
		Short: "List the volumes of a DFXML document",
		Long: `The volumes command prints each volume's offset, block size and file
system type, followed by the image metadata of the document.

Example:
  dfxmlctl volumes image.xml
  dfxmlctl volumes image.xml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVolumes(args)
		},
	}
}

type volumeJSON struct {
	Offset     int64             `json:"offset"`
	BlockSize  int64             `json:"block_size"`
	FType      string            `json:"ftype_str,omitempty"`
	BlockCount *int64            `json:"block_count,omitempty"`
	Files      int               `json:"files"`
	Tags       map[string]string `json:"tags,omitempty"`
}

func runVolumes(args []string) error {
	in, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	var (
		vols  []volumeJSON
		files = map[*record.Volume]int{}
	)
	img, err := dfxml.ReadAll(in, dfxml.Handlers{
		FileObject: func(fo *record.FileObject) error {
			files[fo.Volume()]++
			return nil
		},
		Volume: func(v *record.Volume) error {
			vj := volumeJSON{
				Offset:    v.Offset,
				BlockSize: v.BlockSize,
				FType:     v.FTypeStr(),
				Files:     files[v],
				Tags:      v.Tags(),
			}
			if n, ok := v.BlockCount(); ok {
				vj.BlockCount = &n
			}
			vols = append(vols, vj)
			return nil
		},
	}, dfxmlOptions()...)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	if jsonOut {
		out := struct {
			Image   map[string]string `json:"image"`
			Volumes []volumeJSON      `json:"volumes"`
		}{Image: img.Tags(), Volumes: vols}
		if out.Volumes == nil {
			out.Volumes = []volumeJSON{}
		}
		return printJSON(out)
	}

	if name := img.Filename(); name != "" {
		printInfo("image %s\n", name)
	}
	for _, v := range vols {
		ftype := v.FType
		if ftype == "" {
			ftype = "?"
		}
		printInfo("volume offset=%d block_size=%d ftype=%s files=%d\n", v.Offset, v.BlockSize, ftype, v.Files)
	}
	if n := files[nil]; n > 0 {
		printInfo("%d file objects outside any volume\n", n)
	}
	return nil
}
