package normalizer

import (
	"math"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "去掉称谓", input: "Sir John Smith", expected: "john smith"},
		{name: "带点称谓", input: "Mr. Ali  Khan", expected: "ali khan"},
		{name: "多个称谓", input: "Dr Miss Sara", expected: "sara"},
		{name: "只有称谓时保留", input: "Sir", expected: "sir"},
		{name: "去掉数字和标点", input: "  Ayesha (2) O'Neil ", expected: "ayesha o neil"},
		{name: "保留连字符", input: "Anne-Marie Ray", expected: "anne-marie ray"},
		{name: "称谓只在开头剥离", input: "Amram Sir", expected: "amram sir"},
		{name: "空白", input: "   ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeName_Idempotent(t *testing.T) {
	inputs := []string{
		"Sir John Smith",
		"sir sir mr. x",
		"MRS.  Fatima-Zahra   B.",
		"Dr.",
		"miss   ",
		"12 34",
		"Ms.Lee",
		"Sr. Sr. Sr",
		"ümlaut Name",
	}
	for _, in := range inputs {
		once := NormalizeName(in)
		twice := NormalizeName(once)
		if once != twice {
			t.Errorf("NormalizeName not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestPhoneticKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"john", "jahn"},
		{"Bella", "bala"},
		{"aeiou", "a"},
		{"christopher columbus", "chrastap"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := PhoneticKey(tt.input); got != tt.expected {
			t.Errorf("PhoneticKey(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.expected {
			t.Errorf("Levenshtein(%q, %q) = %d, expected %d", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{name: "大小写不同", a: "John Smith", b: "john smith", expected: 1.0},
		{name: "规范化后相同", a: "Sir John Smith", b: "john smith", expected: 0.99},
		{name: "包含关系", a: "john", b: "john smith", expected: 0.95},
		{name: "三个公共词", a: "muhammad ali khan", b: "muhammad ali khan jr", expected: 1.0},
		{name: "空字符串", a: "", b: "john", expected: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Similarity(%q, %q) = %v, expected %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}

	if s := Similarity("john smith", "john smyth"); s >= DefaultThreshold {
		t.Errorf("near spelling should stay below threshold, got %v", s)
	}
}

func TestIsSameTeacher(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected bool
	}{
		{name: "首词相同", a: "muhammad ali khan", b: "muhammad ali khan jr", expected: true},
		{name: "首词不同", a: "ali ahmed khan", b: "ahmed ali khan", expected: false},
		{name: "无公共词", a: "sara", b: "maria", expected: false},
		{name: "词数相差过大", a: "a", b: "a b c d", expected: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSameTeacher(tt.a, tt.b); got != tt.expected {
				t.Errorf("IsSameTeacher(%q, %q) = %v, expected %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}
