// Package mei seeds annotation documents from MEI music notation files.
// Only the page structure is extracted: measures are counted between
// page-break elements so the editor starts with one entry per page.
package mei

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"augnotes/internal/score"
)

// Result describes the page structure recovered from an MEI document.
type Result struct {
	// MeasuresPerPage holds the measure count of each page in reading
	// order. Documents without page breaks yield a single page.
	MeasuresPerPage []int
}

// PageCount returns the number of pages in the parsed document.
func (r Result) PageCount() int {
	return len(r.MeasuresPerPage)
}

// Data converts the parse result into an initial annotation document.
// Measure times and boxes are unknown at this point, so every page entry
// starts empty; the page count drives the editor layout.
func (r Result) Data() score.Data {
	return score.Empty(r.PageCount())
}

// Parse reads an MEI document and recovers its page structure.
func Parse(r io.Reader) (Result, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	sawMEI := false
	measures := []int{0}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("parse mei: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch strings.ToLower(start.Name.Local) {
		case "mei":
			sawMEI = true
		case "pb":
			// A leading page break before any measure does not open a
			// second page.
			if measures[len(measures)-1] > 0 {
				measures = append(measures, 0)
			}
		case "measure":
			measures[len(measures)-1]++
		}
	}

	if !sawMEI {
		return Result{}, fmt.Errorf("not an mei document")
	}
	return Result{MeasuresPerPage: measures}, nil
}

// ParseBytes parses an in-memory MEI document.
func ParseBytes(raw []byte) (Result, error) {
	return Parse(bytes.NewReader(raw))
}
