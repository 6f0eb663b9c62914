// Package score defines the annotation document describing measure
// boundaries for an augmented score, one entry per page image.
package score

import (
	"encoding/json"
	"fmt"
)

// Page holds the measure annotations for one score page. MeasureEnds are
// playback timestamps; MeasureBounds are page-relative bounding boxes.
type Page struct {
	MeasureEnds   []float64   `json:"measure_ends"`
	MeasureBounds [][]float64 `json:"measure_bounds"`
}

// Data is the persisted annotation document.
type Data struct {
	Pages []Page `json:"pages"`
}

// Empty returns a document with npages empty page entries.
func Empty(npages int) Data {
	if npages < 0 {
		npages = 0
	}
	pages := make([]Page, npages)
	for i := range pages {
		pages[i] = Page{MeasureEnds: []float64{}, MeasureBounds: [][]float64{}}
	}
	return Data{Pages: pages}
}

// Parse decodes a serialized annotation document.
func Parse(raw string) (Data, error) {
	var data Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return Data{}, fmt.Errorf("invalid annotation document: %w", err)
	}
	return data, nil
}

// Encode serializes the document to its wire form.
func (d Data) Encode() (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Validate checks that the document's page count matches the song's page
// list length. Writes with mismatched counts are rejected.
func (d Data) Validate(npages int) error {
	if len(d.Pages) != npages {
		return fmt.Errorf("annotation document has %d pages, song has %d", len(d.Pages), npages)
	}
	return nil
}
