package filters

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/danielsiegl/sqltrim/internal/logging"
)

// CleanOptions controls how CleanFile treats the files around a run.
type CleanOptions struct {
	// Atomic writes into a temporary file next to the output and renames it
	// into place only after a successful run.
	Atomic bool
	// DeleteSource removes the input after a successful run. Failure to
	// remove it is reported in Stats.SourceDeleteErr, not as an error.
	DeleteSource bool
}

// CleanFile filters inputPath into outputPath according to rules.
//
// A missing input yields an error matching ErrNotFound and no output file is
// created. Every other failure matches ErrIO. Without opts.Atomic a failure
// after output was created leaves a truncated output file behind.
func CleanFile(ctx context.Context, inputPath, outputPath string, rules Rules, opts CleanOptions) (st Stats, err error) {
	startTime := time.Now()
	log := logging.FromContext(ctx)
	log.Info("Starting clean operation", "input", inputPath, "output", outputPath,
		"positions", rules.Positions.Sorted(), "pattern", rules.Pattern, "trailing_drop", rules.TrailingDrop)

	if err := rules.Validate(); err != nil {
		return st, err
	}
	in, err := os.Open(inputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Error("Input file not found", "input", inputPath)
			return st, &OpError{Op: "open", Path: inputPath, Kind: ErrNotFound, Err: err}
		}
		log.Error("Failed to open input", "input", inputPath, "error", err)
		return st, ioError("open", inputPath, err)
	}
	defer in.Close()

	if err := checkDistinct(inputPath, outputPath); err != nil {
		return st, err
	}

	writePath := outputPath
	var out *os.File
	if opts.Atomic {
		writePath = tempPath(outputPath)
		out, err = os.OpenFile(writePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
	} else {
		out, err = os.Create(outputPath)
	}
	if err != nil {
		log.Error("Failed to create output", "output", outputPath, "error", err)
		return st, ioError("create", outputPath, err)
	}
	defer func() {
		_ = out.Close() // os.ErrClosed after the explicit Close below
		if err != nil && opts.Atomic {
			_ = os.Remove(writePath)
		}
	}()

	st, err = Filter(ctx, in, out, rules)
	if err != nil {
		log.Error("Filter failed", "error", err, "lines_read", st.Read,
			"duration", logging.FormatDuration(time.Since(startTime)))
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return st, err
		}
		return st, ioError("filter", inputPath, err)
	}
	if err = out.Close(); err != nil {
		return st, ioError("close", writePath, err)
	}
	if opts.Atomic {
		if info, statErr := os.Stat(outputPath); statErr == nil {
			if err = os.Chmod(writePath, info.Mode().Perm()); err != nil {
				return st, ioError("chmod", writePath, err)
			}
		}
		if err = os.Rename(writePath, outputPath); err != nil {
			return st, ioError("rename", outputPath, err)
		}
	}

	if opts.DeleteSource {
		// The input handle must be released before removal on Windows.
		_ = in.Close()
		st.SourceDeleteErr = RemoveSource(ctx, inputPath)
	}

	log.Info("Clean operation completed",
		slog.Int("read", st.Read), slog.Int("kept", st.Kept), slog.Int("dropped", st.Dropped()),
		slog.Int("dropped_position", st.DroppedByPosition), slog.Int("dropped_pattern", st.DroppedByPattern),
		slog.Int("dropped_tail", st.DroppedTail), slog.String("sha256", st.SHA256),
		slog.String("duration", logging.FormatDuration(time.Since(startTime))))
	return st, nil
}

// RemoveSource deletes a consumed input. Failures are logged as warnings and
// returned for reporting; they never undo a finished run.
func RemoveSource(ctx context.Context, path string) error {
	log := logging.FromContext(ctx)
	if err := os.Remove(path); err != nil {
		log.Warn("Failed to delete source file", "input", path, "error", err)
		return err
	}
	log.Info("Source file deleted", "input", path)
	return nil
}

// tempPath names a sibling of outputPath for an atomic write. The file is
// created with the same mode os.Create would use.
func tempPath(outputPath string) string {
	return filepath.Join(filepath.Dir(outputPath), "."+filepath.Base(outputPath)+"-"+uuid.NewString()+".tmp")
}

// checkDistinct refuses to run when the output would truncate the input.
func checkDistinct(inputPath, outputPath string) error {
	inAbs, err1 := filepath.Abs(inputPath)
	outAbs, err2 := filepath.Abs(outputPath)
	if err1 == nil && err2 == nil && inAbs == outAbs {
		return ErrSamePath
	}
	inInfo, err := os.Stat(inputPath)
	if err != nil {
		return nil
	}
	if outInfo, err := os.Stat(outputPath); err == nil && os.SameFile(inInfo, outInfo) {
		return ErrSamePath
	}
	return nil
}
