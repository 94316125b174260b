package mascot

import (
	"fmt"
	"strings"
)

// EyeState is the mutually exclusive rendering mode of the mascot's eyes.
// The zero value means the caller did not supply one.
type EyeState string

const (
	EyeNormal EyeState = "normal"
	EyeClosed EyeState = "closed"
	EyeWhite  EyeState = "white"
)

// Valid reports whether e is one of the known eye states.
func (e EyeState) Valid() bool {
	switch e {
	case EyeNormal, EyeClosed, EyeWhite:
		return true
	}
	return false
}

// AddOn is an independently toggleable decoration layered over the base asset.
type AddOn string

const (
	AddOnAnger              AddOn = "anger"
	AddOnTeardrop           AddOn = "teardrop"
	AddOnTeardropExpression AddOn = "teardrop-expression"
	AddOnTearsStreaming     AddOn = "tears-streaming"
)

// addOnOrder is the bottom-to-top stacking priority of add-on layers.
var addOnOrder = [...]AddOn{AddOnAnger, AddOnTeardrop, AddOnTeardropExpression, AddOnTearsStreaming}

// AllAddOns returns every add-on in stacking order.
func AllAddOns() []AddOn {
	return append([]AddOn(nil), addOnOrder[:]...)
}

func (a AddOn) bit() AddOnSet {
	for i, o := range addOnOrder {
		if o == a {
			return 1 << i
		}
	}
	return 0
}

// Valid reports whether a is one of the known add-ons.
func (a AddOn) Valid() bool { return a.bit() != 0 }

// AddOnSet is an unordered set of add-ons.
type AddOnSet uint8

// NewAddOnSet builds a set from a list, ignoring unknown values and duplicates.
func NewAddOnSet(addOns ...AddOn) AddOnSet {
	var s AddOnSet
	for _, a := range addOns {
		s |= a.bit()
	}
	return s
}

func (s AddOnSet) Has(a AddOn) bool { return a.bit() != 0 && s&a.bit() != 0 }

func (s AddOnSet) With(a AddOn) AddOnSet { return s | a.bit() }

func (s AddOnSet) Without(a AddOn) AddOnSet { return s &^ a.bit() }

func (s AddOnSet) Empty() bool { return s == 0 }

// Slice returns the members in stacking order.
func (s AddOnSet) Slice() []AddOn {
	out := make([]AddOn, 0, len(addOnOrder))
	for _, a := range addOnOrder {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

func (s AddOnSet) String() string {
	parts := make([]string, 0, len(addOnOrder))
	for _, a := range s.Slice() {
		parts = append(parts, string(a))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Expression is the legacy single-value way of asking for a mascot mood.
type Expression string

const (
	ExpressionNone               Expression = "none"
	ExpressionAnger              Expression = "anger"
	ExpressionClosedEye          Expression = "closed-eye"
	ExpressionSmallEye           Expression = "small-eye"
	ExpressionTeardrop           Expression = "teardrop"
	ExpressionTeardropExpression Expression = "teardrop-expression"
	ExpressionTearsStreaming     Expression = "tears-streaming"
)

type legacyMapping struct {
	eye   EyeState
	addOn AddOn
}

var legacyTable = map[Expression]legacyMapping{
	ExpressionNone:               {eye: EyeNormal},
	ExpressionAnger:              {eye: EyeNormal, addOn: AddOnAnger},
	ExpressionClosedEye:          {eye: EyeClosed},
	ExpressionSmallEye:           {eye: EyeWhite},
	ExpressionTeardrop:           {eye: EyeNormal, addOn: AddOnTeardrop},
	ExpressionTeardropExpression: {eye: EyeNormal, addOn: AddOnTeardropExpression},
	ExpressionTearsStreaming:     {eye: EyeClosed, addOn: AddOnTearsStreaming},
}

// Expressions lists the legacy values in their canonical order.
func Expressions() []Expression {
	return []Expression{
		ExpressionNone, ExpressionAnger, ExpressionClosedEye, ExpressionSmallEye,
		ExpressionTeardrop, ExpressionTeardropExpression, ExpressionTearsStreaming,
	}
}

// Valid reports whether x is one of the seven legacy values.
func (x Expression) Valid() bool {
	_, ok := legacyTable[x]
	return ok
}

// Expand maps a legacy expression to its grouped equivalent. Unknown values
// expand like ExpressionNone.
func (x Expression) Expand() (EyeState, AddOnSet) {
	m, ok := legacyTable[x]
	if !ok {
		m = legacyTable[ExpressionNone]
	}
	return m.eye, NewAddOnSet(m.addOn)
}

// DefaultSize is the render edge length used when a request names none.
const DefaultSize = 300

// Request asks for one mascot rendering. Eye and AddOns are the grouped
// fields and always win over Expression: a non-empty Eye replaces the legacy
// eye state, and a non-nil AddOns (even empty) replaces the legacy add-ons.
type Request struct {
	Expression Expression `json:"expression,omitempty" mapstructure:"expression"`
	Eye        EyeState   `json:"eyeState,omitempty" mapstructure:"eyeState"`
	AddOns     []AddOn    `json:"addOns,omitempty" mapstructure:"addOns"`
	Size       int        `json:"size,omitempty" mapstructure:"size"`
}

// Resolved is a request after normalization and constraint enforcement.
type Resolved struct {
	Eye    EyeState
	AddOns AddOnSet
	Size   int
}

// NeedsOverlays reports whether the base asset has to be fetched and rewritten.
func (r Resolved) NeedsOverlays() bool {
	return r.Eye != EyeNormal || !r.AddOns.Empty()
}

func (r Resolved) String() string {
	return fmt.Sprintf("eye=%s addons=%s size=%d", r.Eye, r.AddOns, r.Size)
}

// Resolve expands the legacy expression, applies grouped-field precedence and
// drops tears-streaming unless the eyes are closed.
func (r Request) Resolve() Resolved {
	eye, addOns := r.Expression.Expand()
	if r.Eye.Valid() {
		eye = r.Eye
	}
	if r.AddOns != nil {
		addOns = NewAddOnSet(r.AddOns...)
	}
	if eye != EyeClosed {
		addOns = addOns.Without(AddOnTearsStreaming)
	}
	size := r.Size
	if size <= 0 {
		size = DefaultSize
	}
	return Resolved{Eye: eye, AddOns: addOns, Size: size}
}
