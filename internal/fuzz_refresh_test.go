package internal

import (
	"testing"
)

// FuzzHashRefreshSecret exercises credential hashing with arbitrary strings.
func FuzzHashRefreshSecret(f *testing.F) {
	f.Add("")
	f.Add("abc")
	f.Add("!!!not-base64!!!")
	if raw, err := NewRefreshSecret(); err == nil {
		f.Add(raw)
	}

	f.Fuzz(func(t *testing.T, input string) {
		sum, err := HashRefreshSecret(input)
		if input == "" {
			if err == nil {
				t.Fatal("expected error for empty secret")
			}
			return
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sum) != 64 {
			t.Fatalf("expected 64 hex chars, got %d", len(sum))
		}
		again, _ := HashRefreshSecret(input)
		if again != sum {
			t.Fatal("hash is not deterministic")
		}
	})
}

func TestNewRefreshSecretUnique(t *testing.T) {
	seen := make(map[string]struct{}, 64)
	for i := 0; i < 64; i++ {
		raw, err := NewRefreshSecret()
		if err != nil {
			t.Fatalf("NewRefreshSecret: %v", err)
		}
		if _, dup := seen[raw]; dup {
			t.Fatalf("duplicate secret generated")
		}
		seen[raw] = struct{}{}
	}
}
