package token

import "testing"

func TestDepthTracker(t *testing.T) {
	tests := []struct {
		name   string
		tokens []Token
		want   int
	}{
		{"root", nil, 0},
		{"one object", []Token{StartObject{}}, 1},
		{"nested", []Token{StartObject{}, StartKey{}, EndKey{}, StartArray{}}, 2},
		{"back to root", []Token{StartObject{}, EndObject{}}, 0},
		{"scalar does not change depth", []Token{StartObject{}, StringValue{Text: "x"}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d DepthTracker
			for _, tok := range tt.tokens {
				d.Update(tok)
			}
			if got := d.Depth(); got != tt.want {
				t.Errorf("Depth() = %d, want %d", got, tt.want)
			}
		})
	}
}
