package risk

import (
	"fmt"
	"slices"
	"sort"
)

// Codec maps risk labels to contiguous integer codes and back. Codes are
// assigned in lexicographic label order, so the mapping does not depend on
// the order rows appear in the dataset.
type Codec struct {
	labels []string
	index  map[string]int
}

// FitCodec builds a codec over every distinct value in labels.
func FitCodec(labels []string) (*Codec, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no labels to fit", ErrInsufficientData)
	}

	index := make(map[string]int)
	for _, l := range labels {
		index[l] = 0
	}
	distinct := make([]string, 0, len(index))
	for l := range index {
		distinct = append(distinct, l)
	}
	sort.Strings(distinct)
	for i, l := range distinct {
		index[l] = i
	}
	return &Codec{labels: distinct, index: index}, nil
}

// Encode returns the code for label.
func (c *Codec) Encode(label string) (int, error) {
	code, ok := c.index[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return code, nil
}

// Decode returns the label for code.
func (c *Codec) Decode(code int) (string, error) {
	if code < 0 || code >= len(c.labels) {
		return "", fmt.Errorf("%w: code %d not in [0, %d)", ErrOutOfRange, code, len(c.labels))
	}
	return c.labels[code], nil
}

// Len is the number of fitted labels.
func (c *Codec) Len() int { return len(c.labels) }

// Labels returns the fitted labels in code order.
func (c *Codec) Labels() []string { return slices.Clone(c.labels) }
