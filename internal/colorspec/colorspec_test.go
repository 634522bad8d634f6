package colorspec

import (
	"errors"
	"sync"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want RGBA
	}{
		{"hex with hash", "#FF8040", RGBA{255, 128, 64, 255}},
		{"hex without hash", "00FF00", RGBA{0, 255, 0, 255}},
		{"lower case", "#e8431c", RGBA{0xe8, 0x43, 0x1c, 255}},
		{"black", "#000000", RGBA{0, 0, 0, 255}},
		{"white", "#FFFFFF", RGBA{255, 255, 255, 255}},
		{"sentinel", "transparent", RGBA{}},
		{"sentinel mixed case", "Transparent", RGBA{}},
		{"empty is transparent", "", RGBA{}},
		{"surrounding space", "  #0000FF ", RGBA{0, 0, 255, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.spec)
			if err != nil {
				t.Fatalf("Decode(%q) failed: %v", tt.spec, err)
			}
			if got != tt.want {
				t.Errorf("Decode(%q): got %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []string{
		"#FFF",
		"#GG0000",
		"#FF00000",
		"red",
		"##FF0000",
		"#FF000080",
		"+10000",
	}

	for _, spec := range tests {
		t.Run(spec, func(t *testing.T) {
			_, err := Decode(spec)
			if err == nil {
				t.Fatalf("Decode(%q) should fail", spec)
			}
			if !errors.Is(err, ErrInvalidHex) {
				t.Errorf("error should wrap ErrInvalidHex, got %v", err)
			}
		})
	}
}

func TestParse_TransparentForms(t *testing.T) {
	tests := []struct {
		in          string
		transparent bool
		wantErr     bool
	}{
		{"transparent", true, false},
		{"TRANSPARENT", true, false},
		{"TransParent", true, false},
		{" transparent\t", true, false},
		{"", true, false},
		{"   ", true, false},
		{"transparentx", false, true},
		{"trans parent", false, true},
		{"#transparent", false, true},
		{" #abcdef ", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			spec, err := Parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidHex) {
					t.Errorf("Parse(%q): got %v, want ErrInvalidHex", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.in, err)
			}
			if spec.IsTransparent() != tt.transparent {
				t.Errorf("Parse(%q).IsTransparent: got %v, want %v", tt.in, spec.IsTransparent(), tt.transparent)
			}
			if tt.transparent && spec.String() != Transparent {
				t.Errorf("Parse(%q).String: got %s, want %s", tt.in, spec.String(), Transparent)
			}
		})
	}
}

func TestSpec_String(t *testing.T) {
	if got := MustParse("ff8040").String(); got != "#FF8040" {
		t.Errorf("String: got %s, want #FF8040", got)
	}
	if got := MustParse("").String(); got != Transparent {
		t.Errorf("String: got %s, want %s", got, Transparent)
	}
	if !MustParse("TRANSPARENT").IsTransparent() {
		t.Error("TRANSPARENT should parse as the sentinel")
	}
}

func TestRGBA_Hex(t *testing.T) {
	c := RGBA{R: 1, G: 171, B: 255, A: 0}
	if c.Hex() != "#01ABFF" {
		t.Errorf("Hex: got %s, want #01ABFF", c.Hex())
	}
	if !c.Transparent() {
		t.Error("alpha 0 should report transparent")
	}
}

func TestCache_Memoizes(t *testing.T) {
	c := NewCache()

	first, err := c.Decode("#123456")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	second, _ := c.Decode("#123456")
	if first != second {
		t.Errorf("cached value differs: %+v vs %+v", first, second)
	}

	if _, err := c.Decode("nope"); err == nil {
		t.Error("invalid spec should fail through the cache")
	}
	if _, err := c.Decode("nope"); err == nil {
		t.Error("cached failure should still fail")
	}

	if c.Len() != 2 {
		t.Errorf("Len: got %d, want 2", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear: got %d, want 0", c.Len())
	}
}

func TestCache_Nil(t *testing.T) {
	var c *Cache
	got, err := c.Decode("#010203")
	if err != nil {
		t.Fatalf("nil cache Decode failed: %v", err)
	}
	if got != (RGBA{1, 2, 3, 255}) {
		t.Errorf("got %+v", got)
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := NewCache()
	specs := []string{"#FF0000", "#00FF00", "#0000FF", "transparent", "bad"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = c.Decode(specs[j%len(specs)])
			}
		}()
	}
	wg.Wait()

	if c.Len() != len(specs) {
		t.Errorf("Len: got %d, want %d", c.Len(), len(specs))
	}
}
