// Package record writes and reads the per frame detection files ("<tag>_bb.txt").
//
// Every line holds one ball: "x y width height label", integers separated by a single space,
// lines ordered by ascending label (1=White, 2=Black, 3=Solid, 4=Striped).
package record

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/chenBenjamin97/pool-analyzer/pkg/balls"
	"github.com/pkg/errors"
)

// Record is the bounding box and label of one detected ball.
type Record struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
	Label  int `json:"label"`
}

// FromBalls converts classified balls into records. Unclassified balls are skipped.
func FromBalls(bs []balls.Ball) []Record {
	recs := make([]Record, 0, len(bs))
	for _, b := range bs {
		label := b.Class.Label()
		if label == 0 {
			continue
		}
		box := b.BoundingBox()
		recs = append(recs, Record{X: box.Min.X, Y: box.Min.Y, Width: box.Dx(), Height: box.Dy(), Label: label})
	}
	return recs
}

// FileName returns the detection file name of the given artifact tag.
func FileName(tag string) string {
	return tag + "_bb.txt"
}

// Write writes recs to w ordered by label; records sharing a label keep their order.
func Write(w io.Writer, recs []Record) error {
	sorted := make([]Record, len(recs))
	copy(sorted, recs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Label < sorted[j].Label })

	bw := bufio.NewWriter(w)
	for _, r := range sorted {
		if _, err := fmt.Fprintf(bw, "%d %d %d %d %d\n", r.X, r.Y, r.Width, r.Height, r.Label); err != nil {
			return errors.Wrap(err, "Write")
		}
	}

	return bw.Flush()
}

// WriteFile writes recs into dir/<tag>_bb.txt, replacing any previous file.
func WriteFile(dir, tag string, recs []Record) (string, error) {
	path := filepath.Join(dir, FileName(tag))

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "WriteFile: creating %s", path)
	}
	defer f.Close()

	if err := Write(f, recs); err != nil {
		return "", errors.Wrapf(err, "WriteFile: %s", path)
	}

	return path, f.Close()
}

// Parse reads records written by Write. Blank lines are ignored, anything else must be five integers.
func Parse(r io.Reader) ([]Record, error) {
	recs := make([]Record, 0)
	scanner := bufio.NewScanner(r)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 5 {
			return nil, errors.Errorf("Parse: line %d: expected 5 fields, got %d", lineNo, len(fields))
		}

		var values [5]int
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, errors.Wrapf(err, "Parse: line %d", lineNo)
			}
			values[i] = v
		}

		recs = append(recs, Record{X: values[0], Y: values[1], Width: values[2], Height: values[3], Label: values[4]})
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "Parse")
	}

	return recs, nil
}

// ReadFile parses dir/<tag>_bb.txt.
func ReadFile(dir, tag string) ([]Record, error) {
	path := filepath.Join(dir, FileName(tag))

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "ReadFile: opening %s", path)
	}
	defer f.Close()

	return Parse(f)
}
