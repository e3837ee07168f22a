// validator_test.go - Tests for structural validation
package pdf

import (
	"errors"
	"testing"

	"github.com/zainfaisal220/Sumlyzer/internal/testutil"
)

func TestValidate_Checks(t *testing.T) {
	valid := testutil.MinimalPDF()

	tests := []struct {
		name     string
		data     []byte
		filename string
		limits   Limits
		wantKind ValidationKind
	}{
		{
			name:     "wrong extension",
			data:     valid,
			filename: "report.txt",
			wantKind: KindWrongExtension,
		},
		{
			name:     "upper case extension accepted",
			data:     valid,
			filename: "REPORT.PDF",
		},
		{
			name:     "no extension",
			data:     valid,
			filename: "report",
			wantKind: KindWrongExtension,
		},
		{
			name:     "empty file",
			data:     []byte{},
			filename: "empty.pdf",
			wantKind: KindEmptyFile,
		},
		{
			name:     "wrong extension wins over empty",
			data:     []byte{},
			filename: "empty.txt",
			wantKind: KindWrongExtension,
		},
		{
			name:     "bad signature",
			data:     []byte("GIF89a and then some"),
			filename: "sneaky.pdf",
			wantKind: KindBadSignature,
		},
		{
			name:     "signature checked before size",
			data:     append([]byte("GIF89a"), make([]byte, 4096)...),
			filename: "sneaky.pdf",
			limits:   Limits{HardCap: 1024},
			wantKind: KindBadSignature,
		},
		{
			name:     "over hard cap",
			data:     testutil.MinimalPDF(testutil.WithPadding(8 * 1024)),
			filename: "big.pdf",
			limits:   Limits{HardCap: 4 * 1024},
			wantKind: KindTooLarge,
		},
		{
			name:     "zero cap disables size check",
			data:     testutil.MinimalPDF(testutil.WithPadding(8 * 1024)),
			filename: "big.pdf",
			limits:   Limits{HardCap: 0},
		},
		{
			name:     "valid document",
			data:     valid,
			filename: "report.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Validate(tt.data, tt.filename, tt.limits)

			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if result == nil {
					t.Fatal("expected a result, got nil")
				}
				if result.Size != int64(len(tt.data)) {
					t.Errorf("expected size %d, got %d", len(tt.data), result.Size)
				}
				return
			}

			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if vErr.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, vErr.Kind)
			}
		})
	}
}

func TestValidate_Corruption(t *testing.T) {
	valid := testutil.MinimalPDF()

	t.Run("truncated file loses tail marker", func(t *testing.T) {
		truncated := valid[:len(valid)/2]

		_, err := Validate(truncated, "cut.pdf", Limits{})

		var cErr *CorruptionError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected CorruptionError, got %v", err)
		}
	})

	t.Run("garbage body fails deep parse", func(t *testing.T) {
		_, err := Validate(testutil.GarbagePDF(), "garbage.pdf", Limits{})

		var cErr *CorruptionError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected CorruptionError, got %v", err)
		}
	})
}

func TestValidate_Encrypted(t *testing.T) {
	data := testutil.MinimalPDF(testutil.WithEncryptMarker())

	result, err := Validate(data, "locked.pdf", Limits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Encrypted {
		t.Error("expected encrypted flag to be set")
	}

	plain, err := Validate(testutil.MinimalPDF(), "open.pdf", Limits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plain.Encrypted {
		t.Error("expected encrypted flag to be clear")
	}
}

func TestValidate_Deterministic(t *testing.T) {
	data := testutil.MinimalPDF(testutil.WithText("same bytes, same verdict"))

	first, err1 := Validate(data, "doc.pdf", Limits{HardCap: 1 << 20})
	second, err2 := Validate(data, "doc.pdf", Limits{HardCap: 1 << 20})

	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if *first != *second {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}
}
