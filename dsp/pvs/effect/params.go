package effect

import "math"

// Params holds named effect parameters, as read from a control surface or a
// parameter file.
type Params struct {
	Num map[string]float64 `json:"num,omitempty"`
	Str map[string]string  `json:"str,omitempty"`
}

// GetNum safely extracts a numeric parameter, returning def if missing or invalid.
func (p Params) GetNum(key string, def float64) float64 {
	if p.Num == nil {
		return def
	}

	v, ok := p.Num[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}

	return v
}

// GetStr extracts a string parameter, returning def if missing.
func (p Params) GetStr(key, def string) string {
	if v, ok := p.Str[key]; ok {
		return v
	}

	return def
}
