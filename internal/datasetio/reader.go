// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package datasetio is the thin toolkit-integration layer spec.md §1
// treats as an external collaborator: reading delimited tuple files,
// normalizing their columns into [0,1], and caching parsed datasets
// across repeated CLI invocations. None of it is part of the engine's
// own design; lib/bang accepts plain [][]float64 regardless of where
// the tuples came from.
package datasetio

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/datawire/dlib/dlog"

	"git.lukeshu.com/bang-cluster/lib/textui"
)

// Dataset is a parsed tuple file: Columns are the header names taken
// from a non-numeric first line (if any), and Tuples holds one float64
// slice per input row.
type Dataset struct {
	Columns []string
	Tuples  [][]float64
}

// Reader reads whitespace- or comma-delimited tuple files, one tuple
// per line, reporting ingestion progress the way the teacher's
// runeScanner (cmd/btrfs-rec/util.go) reports read progress: a
// textui.Progress ticking against a textui.Portion of bytes consumed.
type Reader struct {
	ctx      context.Context
	progress *textui.Progress[textui.Portion[int64]]
}

// NewReader returns a Reader that logs ingestion progress against ctx
// at dlog.LogLevelInfo, once per interval.
func NewReader(ctx context.Context, interval time.Duration) *Reader {
	return &Reader{ctx: ctx, progress: textui.NewProgress[textui.Portion[int64]](ctx, dlog.LogLevelInfo, interval)}
}

// ReadFile opens path and parses it as a Dataset.
func (rd *Reader) ReadFile(path string) (*Dataset, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	fi, err := fh.Stat()
	if err != nil {
		return nil, err
	}
	progress := textui.Portion[int64]{D: fi.Size()}

	scanner := bufio.NewScanner(fh)
	var out Dataset
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		progress.N += int64(len(scanner.Bytes())) + 1
		rd.progress.Set(progress)

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := splitFields(line)
		if lineNo == 1 && !looksNumeric(fields) {
			out.Columns = fields
			continue
		}
		tuple := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("datasetio: %s:%d: column %d: %w", path, lineNo, i+1, err)
			}
			tuple[i] = v
		}
		out.Tuples = append(out.Tuples, tuple)
	}
	rd.progress.Done()
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &out, nil
}

func splitFields(line string) []string {
	line = strings.ReplaceAll(line, ",", " ")
	return strings.Fields(line)
}

func looksNumeric(fields []string) bool {
	for _, f := range fields {
		if _, err := strconv.ParseFloat(f, 64); err != nil {
			return false
		}
	}
	return len(fields) > 0
}
