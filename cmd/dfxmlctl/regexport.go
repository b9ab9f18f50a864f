package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dfxmlkit/internal/regtext"
	"github.com/joshuapare/dfxmlkit/regxml"
)

var (
	regExportOutput string
	regExportPrefix string
	regExportUTF16  bool
	regExportMTime  bool
)

func init() {
	cmd := newRegExportCmd()
	cmd.Flags().StringVarP(&regExportOutput, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&regExportPrefix, "root", "", `Prepend this path to every key, e.g. "HKEY_LOCAL_MACHINE\SOFTWARE"`)
	cmd.Flags().BoolVar(&regExportUTF16, "utf16", false, "Write UTF-16LE with a byte order mark, as regedit does")
	cmd.Flags().BoolVar(&regExportMTime, "mtime", false, "Add a comment with each key's mtime")
	rootCmd.AddCommand(cmd)
}

func newRegExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regexport <regxml>",
		Short: "Convert a RegXML document to .reg text",
		Long: `The regexport command reads a RegXML document and writes every hive in it
as a Windows .reg file. Hives are written one after another.

Example:
  dfxmlctl regexport software.xml -o software.reg
  dfxmlctl regexport software.xml --root 'HKEY_LOCAL_MACHINE\SOFTWARE' --utf16`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegExport(args)
		},
	}
}

func runRegExport(args []string) error {
	in, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	hives, err := regxml.ReadHives(in, regxmlOptions()...)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	printVerbose("Read %d hive(s)\n", len(hives))

	opts := regtext.ExportOptions{Prefix: regExportPrefix, MTimeComments: regExportMTime}
	if regExportUTF16 {
		opts.OutputEncoding = regtext.EncodingUTF16LE
		opts.WithBOM = true
	}

	out := os.Stdout
	if regExportOutput != "" {
		f, err := os.Create(regExportOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	for _, h := range hives {
		data, err := regtext.ExportHive(h, opts)
		if err != nil {
			return err
		}
		if _, err := out.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if regExportOutput != "" {
		printInfo("%s %s\n", okColor("wrote"), regExportOutput)
	}
	return nil
}
