package language

import (
	"testing"

	"github.com/leonardotrapani/transcribebridge/internal/apierr"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		wantCode string
	}{
		{"zh", "zh"},
		{"Chinese", "zh"},
		{"zh_CN", "zh"},
		{"chinese_simplified", "zh"},
		{"zh-Hans", "zh"},
		{"en", "en"},
		{"  English ", "en"},
		{"en_us", "en"},
		{"en-GB", "en"},
		{"ja", "ja"},
		{"japanese", "ja"},
		{"ko", "ko"},
		{"KOREAN", "ko"},
		{"fr", "fr"},
		{"fr-CA", "fr"},
		{"german", "de"},
		{"de-AT", "de"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if got.Code != tt.wantCode {
				t.Errorf("Parse(%q).Code = %q, want %q", tt.input, got.Code, tt.wantCode)
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, input := range []string{"", "klingon", "es", "zh-Hant", "zh_TW_x"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			if !apierr.Is(err, apierr.KindInvalidInput) {
				t.Errorf("Parse(%q) error = %v, want invalid input", input, err)
			}
		})
	}
}

func TestParseErrorMessage(t *testing.T) {
	_, err := Parse(" Klingon ")
	if err == nil || err.Error() != "Unknown language type: klingon" {
		t.Errorf("error = %v", err)
	}
}

func TestFromCode(t *testing.T) {
	lang, ok := FromCode("ja")
	if !ok {
		t.Fatal("FromCode(ja) not found")
	}
	if lang.Name != "Japanese" {
		t.Errorf("Name = %q, want Japanese", lang.Name)
	}
	if lang.NativeName != "日本語" {
		t.Errorf("NativeName = %q, want 日本語", lang.NativeName)
	}

	if _, ok := FromCode("xx"); ok {
		t.Error("FromCode(xx) should not be found")
	}
}

func TestList(t *testing.T) {
	list := List()
	if len(list) != 6 {
		t.Fatalf("List() returned %d languages, want 6", len(list))
	}
	list[0].Code = "mutated"
	if List()[0].Code == "mutated" {
		t.Error("List() should return a copy")
	}

	for _, code := range Codes() {
		if _, err := Parse(code); err != nil {
			t.Errorf("code %q does not parse: %v", code, err)
		}
	}
}

func TestLabel(t *testing.T) {
	if got := Label("fr"); got != "French (fr)" {
		t.Errorf("Label(fr) = %q", got)
	}
	if got := Label("xx"); got != "language 'xx'" {
		t.Errorf("Label(xx) = %q", got)
	}
}
