package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dfxmlkit/dfxml"
	"github.com/joshuapare/dfxmlkit/extent"
	"github.com/joshuapare/dfxmlkit/record"
)

var (
	filesAllocatedOnly bool
	filesRuns          bool
)

func init() {
	cmd := newFilesCmd()
	cmd.Flags().BoolVar(&filesAllocatedOnly, "allocated", false, "Only list allocated files")
	cmd.Flags().BoolVar(&filesRuns, "runs", false, "Show byte runs")
	rootCmd.AddCommand(cmd)
}

func newFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files <dfxml>",
		Short: "List the file objects of a DFXML document",
		Long: `The files command streams a DFXML document and prints one line per
file object: size, fragment count, allocation status and name.

Example:
  dfxmlctl files image.xml
  dfxmlctl files image.xml --allocated --runs
  fiwalk -X /dev/stdout disk.raw | dfxmlctl files - --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(args)
		},
	}
}

// fileJSON is the --json form of a file object.
type fileJSON struct {
	Filename  string            `json:"filename"`
	Filesize  *int64            `json:"filesize,omitempty"`
	Inode     string            `json:"inode,omitempty"`
	Allocated bool              `json:"allocated"`
	MD5       string            `json:"md5,omitempty"`
	SHA1      string            `json:"sha1,omitempty"`
	Times     map[string]string `json:"times,omitempty"`
	Runs      []runJSON         `json:"byte_runs,omitempty"`
}

type runJSON struct {
	ImgOffset  *int64 `json:"img_offset,omitempty"`
	FileOffset *int64 `json:"file_offset,omitempty"`
	Len        *int64 `json:"len,omitempty"`
}

func toRunJSON(r extent.ByteRun) runJSON {
	var out runJSON
	if r.Has(extent.FieldImgOffset) {
		out.ImgOffset = &r.ImgOffset
	}
	if r.Has(extent.FieldFileOffset) {
		out.FileOffset = &r.FileOffset
	}
	if r.Has(extent.FieldLen) {
		out.Len = &r.Len
	}
	return out
}

func toFileJSON(fo *record.FileObject) fileJSON {
	out := fileJSON{
		Filename:  fo.Filename(),
		Inode:     fo.Inode(),
		Allocated: fo.Allocated(),
		MD5:       fo.MD5(),
		SHA1:      fo.SHA1(),
	}
	if n, ok := fo.Filesize(); ok {
		out.Filesize = &n
	}
	if times := fo.Times(); len(times) > 0 {
		out.Times = make(map[string]string, len(times))
		for name, t := range times {
			out.Times[name] = t.ISO8601()
		}
	}
	for _, r := range fo.ByteRuns() {
		out.Runs = append(out.Runs, toRunJSON(r))
	}
	return out
}

func runFiles(args []string) error {
	in, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	var (
		listed []fileJSON
		tw     = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		count  int
	)
	err = dfxml.Read(in, func(fo *record.FileObject) error {
		if filesAllocatedOnly && !fo.Allocated() {
			return nil
		}
		count++
		if jsonOut {
			listed = append(listed, toFileJSON(fo))
			return nil
		}
		if quiet {
			return nil
		}
		size := "-"
		if n, ok := fo.Filesize(); ok {
			size = fmt.Sprint(n)
		}
		status := okColor("alloc")
		if !fo.Allocated() {
			status = badColor("unalloc")
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", size, fo.Fragments(), status, fo.Filename())
		if filesRuns {
			for _, r := range fo.ByteRuns() {
				fmt.Fprintf(tw, "\t\t\t  %s\n", r)
			}
		}
		return nil
	}, dfxmlOptions()...)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	if jsonOut {
		if listed == nil {
			listed = []fileJSON{}
		}
		return printJSON(listed)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printVerbose("%d file objects\n", count)
	return nil
}
