package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hupe1980/colormatch/codec"
)

// sourceColor is one entry of a vendor colour list.
type sourceColor struct {
	Name      string     `json:"name"`
	Code      string     `json:"code"`
	R         flexNumber `json:"r"`
	G         flexNumber `json:"g"`
	B         flexNumber `json:"b"`
	LRV       flexNumber `json:"lrv"`
	ID        flexNumber `json:"id"`
	LightText bool       `json:"lightText"`
}

// flexNumber accepts a JSON number or a numeric string. Anything else decodes as 0.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(s))
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*n = 0
		return nil //nolint:nilerr // unparsable values are treated as zero
	}
	*n = flexNumber(f)
	return nil
}

// DecodeJSON converts a vendor colour list into catalog records.
//
// Entries whose RGB channels fall outside [0, 255] are skipped and counted.
// LRV is scaled by 100, rounded, and clamped to the u16 range.
func DecodeJSON(data []byte, c codec.Codec) ([]Record, int, error) {
	if c == nil {
		c = codec.Default
	}

	var src []sourceColor
	if err := c.Unmarshal(data, &src); err != nil {
		return nil, 0, fmt.Errorf("catalog: decode %s source: %w", c.Name(), err)
	}

	records := make([]Record, 0, len(src))
	skipped := 0
	for _, sc := range src {
		r, okR := channel(sc.R)
		g, okG := channel(sc.G)
		b, okB := channel(sc.B)
		if !okR || !okG || !okB {
			skipped++
			continue
		}

		records = append(records, Record{
			R:         r,
			G:         g,
			B:         b,
			LRVScaled: scaleLRV(float64(sc.LRV)),
			ID:        recordID(float64(sc.ID)),
			Name:      strings.TrimSpace(sc.Name),
			Code:      strings.TrimSpace(sc.Code),
			LightText: sc.LightText,
		})
	}

	return records, skipped, nil
}

func channel(v flexNumber) (uint8, bool) {
	f := math.Trunc(float64(v))
	if math.IsNaN(f) || f < 0 || f > 255 {
		return 0, false
	}
	return uint8(f), true
}

func recordID(v float64) uint32 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(v)
	}
}

func scaleLRV(lrv float64) uint16 {
	scaled := math.Round(lrv * 100)
	switch {
	case math.IsNaN(scaled) || scaled < 0:
		return 0
	case scaled > math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(scaled)
	}
}
