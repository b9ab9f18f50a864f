package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dfxmlkit/record"
	"github.com/joshuapare/dfxmlkit/regxml"
)

var (
	regKeysOnly bool
	regPrefix   string
)

func init() {
	cmd := newRegCmd()
	cmd.Flags().BoolVar(&regKeysOnly, "keys", false, "Only list keys")
	cmd.Flags().StringVar(&regPrefix, "prefix", "", `Only list cells under this path, e.g. "\ROOT\Software"`)
	rootCmd.AddCommand(cmd)
}

func newRegCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reg <regxml>",
		Short: "List the keys and values of a RegXML document",
		Long: `The reg command streams a RegXML document and prints each key and value
by full path as it completes. Subkeys and values are listed before the key
that holds them.

Example:
  dfxmlctl reg software.xml
  dfxmlctl reg software.xml --keys --prefix '\ROOT\Microsoft'
  dfxmlctl reg software.xml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReg(args)
		},
	}
}

type cellJSON struct {
	Kind    string   `json:"kind"`
	Path    string   `json:"path"`
	MTime   string   `json:"mtime,omitempty"`
	Type    string   `json:"type,omitempty"`
	Data    string   `json:"data,omitempty"`
	Strings []string `json:"strings,omitempty"`
}

// dataText shows value data as text when it is printable UTF-8 and as
// hex otherwise.
func dataText(b []byte) string {
	if utf8.Valid(b) && !strings.ContainsRune(string(b), 0) {
		return string(b)
	}
	return fmt.Sprintf("hex:%x", b)
}

func toCellJSON(c record.Cell) cellJSON {
	out := cellJSON{Kind: c.Kind().String(), Path: c.Path()}
	switch c := c.(type) {
	case record.Key:
		if t := c.MTime(); !t.IsNull() {
			out.MTime = t.ISO8601()
		}
	case record.Value:
		out.Type = c.Type()
		if strs, ok := c.Strings(); ok {
			out.Strings = strs
		} else if data, ok := c.Data(); ok {
			out.Data = dataText(data)
		}
	}
	return out
}

func runReg(args []string) error {
	in, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	var cells []cellJSON
	err = regxml.Read(in, func(c record.Cell) error {
		if regKeysOnly && c.Kind() != record.KindKey {
			return nil
		}
		if regPrefix != "" && !strings.HasPrefix(c.Path(), regPrefix) {
			return nil
		}
		cj := toCellJSON(c)
		if jsonOut {
			cells = append(cells, cj)
			return nil
		}
		switch {
		case cj.Kind == record.KindKey.String() && cj.MTime != "":
			printInfo("%s\t%s\t%s\n", cj.Kind, cj.Path, cj.MTime)
		case cj.Strings != nil:
			printInfo("%s\t%s\t%s\t%s\n", cj.Kind, cj.Path, cj.Type, strings.Join(cj.Strings, "|"))
		case cj.Kind == record.KindValue.String():
			printInfo("%s\t%s\t%s\t%s\n", cj.Kind, cj.Path, cj.Type, cj.Data)
		default:
			printInfo("%s\t%s\n", cj.Kind, cj.Path)
		}
		return nil
	}, regxmlOptions()...)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	if jsonOut {
		if cells == nil {
			cells = []cellJSON{}
		}
		return printJSON(cells)
	}
	return nil
}
