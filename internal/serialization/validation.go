package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Limits on untrusted SafeTensors headers.
const (
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
)

// validateHeader checks tensor names and that the data regions of a header
// stay inside a data section of dataSize bytes without overlapping.
func validateHeader(h *SafeTensorsHeader, dataSize int64) error {
	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(h.Tensors), MaxTensorCount),
		}
	}

	type region struct {
		name       string
		start, end int64
	}
	regions := make([]region, 0, len(h.Tensors))
	for name, info := range h.Tensors {
		if err := validateTensorName(name); err != nil {
			return err
		}
		start, end := info.DataOffsets[0], info.DataOffsets[1]
		if start < 0 || end < start || end > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  name,
				Details: fmt.Sprintf("offsets [%d, %d) outside data section of %d bytes", start, end, dataSize),
			}
		}
		regions = append(regions, region{name: name, start: start, end: end})
	}

	sort.Slice(regions, func(i, j int) bool {
		if regions[i].start != regions[j].start {
			return regions[i].start < regions[j].start
		}
		return regions[i].name < regions[j].name
	})
	for i := 1; i < len(regions); i++ {
		prev, cur := regions[i-1], regions[i]
		if prev.end > cur.start {
			return &ValidationError{
				Type:    "offset_overlap",
				Tensor:  cur.name,
				Details: fmt.Sprintf("region [%d, %d) overlaps %q at [%d, %d)", cur.start, cur.end, prev.name, prev.start, prev.end),
			}
		}
	}
	return nil
}

func validateTensorName(name string) error {
	switch {
	case name == "":
		return &ValidationError{Type: "invalid_name", Details: "empty tensor name"}
	case len(name) > MaxTensorNameLen:
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name[:64],
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	case strings.ContainsRune(name, 0):
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains null byte"}
	}
	return nil
}
