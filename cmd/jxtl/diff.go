package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

var errMismatch = errors.New("output does not match expected")

var (
	removed = color.New(color.FgRed, color.CrossedOut).SprintFunc()
	added   = color.New(color.FgGreen, color.Underline).SprintFunc()
)

// compareOutput writes a character diff of want against got to w and
// returns errMismatch when they differ.
func compareOutput(w io.Writer, want, got string) error {
	if want == got {
		return nil
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(want, got, true))
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			fmt.Fprint(w, removed(d.Text))
		case diffmatchpatch.DiffInsert:
			fmt.Fprint(w, added(d.Text))
		default:
			fmt.Fprint(w, d.Text)
		}
	}
	fmt.Fprintln(w)

	return fmt.Errorf("%w (%d edits, distance %d)", errMismatch, countEdits(diffs), dmp.DiffLevenshtein(diffs))
}

func countEdits(diffs []diffmatchpatch.Diff) int {
	n := 0
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffEqual {
			n++
		}
	}
	return n
}
