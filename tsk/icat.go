// Package tsk extracts file contents with The Sleuth Kit command-line tools,
// for files whose byte runs cannot reconstruct them.
package tsk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/joshuapare/dfxmlkit/internal/logger"
	"github.com/joshuapare/dfxmlkit/pkg/types"
	"github.com/joshuapare/dfxmlkit/record"
)

// DefaultIcat is the command run when Icat.Path is empty.
const DefaultIcat = "icat"

// icatSectorSize is the unit of icat's -o partition offset.
const icatSectorSize = 512

// IsIcatAvailable reports whether the icat command is on PATH.
func IsIcatAvailable() bool {
	_, err := exec.LookPath(DefaultIcat)
	return err == nil
}

// Icat is a record.Extractor that runs
//
//	icat -b 512 -o <volume offset in sectors> <image> <inode>
//
// and streams its standard output.
type Icat struct {
	// Path is the icat binary. Default: DefaultIcat, found on PATH.
	Path string
	// Image is the disk image path. Default: the image_filename the
	// document recorded.
	Image string
}

var _ record.Extractor = (*Icat)(nil)

// Args returns the command line Extract would run for fo.
func (c *Icat) Args(fo *record.FileObject) ([]string, error) {
	inode := strings.TrimSpace(fo.Inode())
	if inode == "" {
		return nil, &types.Error{
			Kind: types.ErrKindNotFound,
			Msg:  fmt.Sprintf("icat: %q has no inode", fo.Filename()),
			Err:  types.ErrNotFound,
		}
	}
	image := c.Image
	var offset int64
	if v := fo.Volume(); v != nil {
		offset = v.Offset
		if image == "" && v.Image != nil {
			image = v.Image.Filename()
		}
	}
	if image == "" {
		return nil, types.ErrNoImage
	}
	return []string{
		"-b", strconv.Itoa(icatSectorSize),
		"-o", strconv.FormatInt(offset/icatSectorSize, 10),
		image, inode,
	}, nil
}

// Extract implements record.Extractor. Output on standard error counts as
// failure even when icat exits zero.
func (c *Icat) Extract(ctx context.Context, fo *record.FileObject, w io.Writer) error {
	args, err := c.Args(fo)
	if err != nil {
		return err
	}
	bin := c.Path
	if bin == "" {
		bin = DefaultIcat
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = w
	cmd.Stderr = &stderr

	logger.L.Debug("running icat", "cmd", bin, "args", args)
	runErr := cmd.Run()
	if runErr != nil || stderr.Len() > 0 {
		e := &IcatError{Args: append([]string{bin}, args...), Stderr: strings.TrimSpace(stderr.String()), Err: runErr}
		if cmd.ProcessState != nil {
			e.ExitCode = cmd.ProcessState.ExitCode()
		}
		return e
	}
	return nil
}

// IcatError reports a failed icat run.
type IcatError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *IcatError) Error() string {
	msg := "icat error: " + strings.Join(e.Args, " ")
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *IcatError) Unwrap() error { return e.Err }
