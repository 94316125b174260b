package mascot

import (
	"reflect"
	"testing"
)

func TestLegacyExpansion(t *testing.T) {
	tests := []struct {
		expr   Expression
		eye    EyeState
		addOns []AddOn
	}{
		{ExpressionNone, EyeNormal, []AddOn{}},
		{ExpressionAnger, EyeNormal, []AddOn{AddOnAnger}},
		{ExpressionClosedEye, EyeClosed, []AddOn{}},
		{ExpressionSmallEye, EyeWhite, []AddOn{}},
		{ExpressionTeardrop, EyeNormal, []AddOn{AddOnTeardrop}},
		{ExpressionTeardropExpression, EyeNormal, []AddOn{AddOnTeardropExpression}},
		{ExpressionTearsStreaming, EyeClosed, []AddOn{AddOnTearsStreaming}},
		{"", EyeNormal, []AddOn{}},
		{"grumpy", EyeNormal, []AddOn{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.expr), func(t *testing.T) {
			for i := 0; i < 3; i++ {
				r := Request{Expression: tt.expr}.Resolve()
				if r.Eye != tt.eye {
					t.Fatalf("eye = %q, want %q", r.Eye, tt.eye)
				}
				if got := r.AddOns.Slice(); !reflect.DeepEqual(got, tt.addOns) {
					t.Fatalf("addOns = %v, want %v", got, tt.addOns)
				}
			}
		})
	}
	if len(Expressions()) != 7 {
		t.Errorf("expected seven legacy expressions, got %d", len(Expressions()))
	}
}

func TestGroupedFieldsOverrideLegacy(t *testing.T) {
	r := Request{Expression: ExpressionAnger, Eye: EyeWhite}.Resolve()
	if r.Eye != EyeWhite {
		t.Errorf("grouped eye state should win, got %q", r.Eye)
	}
	if !r.AddOns.Has(AddOnAnger) {
		t.Errorf("legacy add-ons should survive when AddOns is nil, got %s", r.AddOns)
	}

	r = Request{Expression: ExpressionAnger, AddOns: []AddOn{}}.Resolve()
	if !r.AddOns.Empty() {
		t.Errorf("an empty AddOns slice should clear legacy add-ons, got %s", r.AddOns)
	}

	r = Request{Expression: ExpressionClosedEye, Eye: EyeNormal, AddOns: []AddOn{AddOnTeardrop}}.Resolve()
	if r.Eye != EyeNormal || r.AddOns != NewAddOnSet(AddOnTeardrop) {
		t.Errorf("unexpected resolution %s", r)
	}
}

func TestTearsStreamingNeedsClosedEyes(t *testing.T) {
	for _, eye := range []EyeState{EyeNormal, EyeWhite} {
		r := Request{Eye: eye, AddOns: []AddOn{AddOnTearsStreaming, AddOnAnger}}.Resolve()
		if r.AddOns.Has(AddOnTearsStreaming) {
			t.Errorf("tears-streaming kept with eye state %q", eye)
		}
		if !r.AddOns.Has(AddOnAnger) {
			t.Errorf("anger dropped with eye state %q", eye)
		}
	}
	// The legacy value carries its own closed eye.
	r := Request{Expression: ExpressionTearsStreaming}.Resolve()
	if !r.AddOns.Has(AddOnTearsStreaming) {
		t.Error("tears-streaming should survive with closed eyes")
	}
	// Overriding the legacy eye state drops it again.
	r = Request{Expression: ExpressionTearsStreaming, Eye: EyeWhite}.Resolve()
	if r.AddOns.Has(AddOnTearsStreaming) {
		t.Error("tears-streaming should be filtered after eye override")
	}
}

func TestAddOnSetOrderAndSize(t *testing.T) {
	s := NewAddOnSet(AddOnTearsStreaming, AddOnAnger, AddOnTeardrop, AddOnAnger, "sparkles")
	want := []AddOn{AddOnAnger, AddOnTeardrop, AddOnTearsStreaming}
	if got := s.Slice(); !reflect.DeepEqual(got, want) {
		t.Errorf("Slice() = %v, want %v", got, want)
	}
	if s.Has("sparkles") {
		t.Error("unknown add-on reported as member")
	}

	if got := (Request{}).Resolve().Size; got != DefaultSize {
		t.Errorf("default size = %d, want %d", got, DefaultSize)
	}
	if got := (Request{Size: -4}).Resolve().Size; got != DefaultSize {
		t.Errorf("negative size = %d, want %d", got, DefaultSize)
	}
	if got := (Request{Size: 420}).Resolve().Size; got != 420 {
		t.Errorf("size = %d, want 420", got)
	}
}
