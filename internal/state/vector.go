package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// #region accessors

// Get returns the value of d and whether it is present.
func (v Vector) Get(d Dimension) (float64, bool) {
	if !valid(d) {
		return 0, false
	}
	return v.values[d], v.present[d]
}

// Value returns the value of d, or 0 when absent.
func (v Vector) Value(d Dimension) float64 {
	x, _ := v.Get(d)
	return x
}

// Has reports whether d is present.
func (v Vector) Has(d Dimension) bool {
	return valid(d) && v.present[d]
}

// Set marks d present with value x.
func (v *Vector) Set(d Dimension, x float64) {
	if !valid(d) {
		return
	}
	v.values[d] = x
	v.present[d] = true
}

// Unset makes d absent again.
func (v *Vector) Unset(d Dimension) {
	if !valid(d) {
		return
	}
	v.values[d] = 0
	v.present[d] = false
}

// With returns a copy of v with d set to x.
func (v Vector) With(d Dimension, x float64) Vector {
	v.Set(d, x)
	return v
}

// Present lists the present dimensions in canonical order.
func (v Vector) Present() []Dimension {
	var out []Dimension
	for i := 0; i < NumDimensions; i++ {
		if v.present[i] {
			out = append(out, Dimension(i))
		}
	}
	return out
}

// Len counts present numeric dimensions.
func (v Vector) Len() int {
	n := 0
	for _, p := range v.present {
		if p {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no numeric dimension and no frontline tag is present.
func (v Vector) IsEmpty() bool {
	return v.Len() == 0 && v.Frontline == ""
}

// Equal reports presence-and-value equality.
func (v Vector) Equal(o Vector) bool {
	return v.present == o.present && v.values == o.values && v.Frontline == o.Frontline
}

// #endregion accessors

// #region arithmetic

// Merge sums a and b per dimension. A dimension absent from one side
// contributes 0; a dimension absent from both stays absent. Casualties are
// rounded after summing. The result is not clamped.
func Merge(a, b Vector) Vector {
	out := Vector{Frontline: a.Frontline}
	if b.Frontline != "" {
		out.Frontline = b.Frontline
	}
	for i := 0; i < NumDimensions; i++ {
		if !a.present[i] && !b.present[i] {
			continue
		}
		sum := a.values[i] + b.values[i]
		if Dimension(i) == CasualtiesExpected {
			sum = roundHalfUp(sum)
		}
		out.values[i] = sum
		out.present[i] = true
	}
	return out
}

// Clamp clips every present bounded dimension to [0, 1]. Casualties are
// left untouched; see FloorCasualties.
func Clamp(v Vector) Vector {
	for i := 0; i < NumDimensions; i++ {
		if !v.present[i] || !Dimension(i).Bounded() {
			continue
		}
		v.values[i] = math.Max(lowerBound, math.Min(upperBound, v.values[i]))
	}
	return v
}

// FloorCasualties rounds casualties to an integer and floors it at zero.
func FloorCasualties(v Vector) Vector {
	if v.present[CasualtiesExpected] {
		v.values[CasualtiesExpected] = math.Max(0, roundHalfUp(v.values[CasualtiesExpected]))
	}
	return v
}

// Commit folds delta into s and restores every invariant: merge, clamp,
// then the casualty floor.
func Commit(s Vector, delta Delta) Vector {
	return FloorCasualties(Clamp(Merge(s, delta)))
}

// Scale multiplies every present dimension by f.
func Scale(v Vector, f float64) Vector {
	for i := 0; i < NumDimensions; i++ {
		if v.present[i] {
			v.values[i] *= f
		}
	}
	return v
}

// Accumulate adds o into v without rounding or clamping. Pending deltas use
// this so downstream scaling sees the raw magnitude.
func (v *Vector) Accumulate(o Vector) {
	for i := 0; i < NumDimensions; i++ {
		if !o.present[i] {
			continue
		}
		v.values[i] += o.values[i]
		v.present[i] = true
	}
	if o.Frontline != "" {
		v.Frontline = o.Frontline
	}
}

// #endregion arithmetic

// #region check

// Check verifies the committed-state invariants: bounded dimensions in
// [0, 1], casualties a non-negative integer, and no NaN or Inf anywhere.
func (v Vector) Check() error {
	for _, d := range v.Present() {
		x := v.values[d]
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%s is not finite", d)
		}
		if d.Bounded() {
			if x < lowerBound || x > upperBound {
				return fmt.Errorf("%s=%g outside [0,1]", d, x)
			}
			continue
		}
		if x < 0 {
			return fmt.Errorf("%s=%g is negative", d, x)
		}
		if x != math.Trunc(x) {
			return fmt.Errorf("%s=%g is not an integer", d, x)
		}
	}
	return nil
}

// #endregion check

// #region json

// MarshalJSON writes only the present dimensions, in canonical order.
func (v Vector) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	sep := func() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
	}
	for _, d := range v.Present() {
		x := v.values[d]
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("marshal %s: value is not finite", d)
		}
		sep()
		buf.WriteString(strconv.Quote(d.String()))
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	}
	if v.Frontline != "" {
		sep()
		buf.WriteString(`"frontline_position":`)
		tag, err := json.Marshal(v.Frontline)
		if err != nil {
			return nil, err
		}
		buf.Write(tag)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a partial state object. Unknown keys and nulls are
// ignored so that absent stays absent.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal state: %w", err)
	}
	*v = Vector{}
	for key, msg := range raw {
		if string(msg) == "null" {
			continue
		}
		if key == "frontline_position" {
			if err := json.Unmarshal(msg, &v.Frontline); err != nil {
				return fmt.Errorf("unmarshal frontline_position: %w", err)
			}
			continue
		}
		d, ok := ParseDimension(key)
		if !ok {
			continue
		}
		var x float64
		if err := json.Unmarshal(msg, &x); err != nil {
			return fmt.Errorf("unmarshal %s: %w", key, err)
		}
		v.Set(d, x)
	}
	return nil
}

// #endregion json

// #region helpers
func valid(d Dimension) bool {
	return d >= 0 && int(d) < NumDimensions
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// #endregion helpers
