package cache

import (
	"testing"

	"github.com/personagen/personagen/internal/model"
)

func TestHashAddr_Deterministic(t *testing.T) {
	t.Parallel()

	addr := "192.168.1.100"

	hash1 := hashAddr(addr)
	hash2 := hashAddr(addr)

	if hash1 != hash2 {
		t.Error("Same address should produce same hash")
	}
}

func TestHashAddr_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		addr string
	}{
		{"IPv4", "192.168.1.1"},
		{"IPv4 localhost", "127.0.0.1"},
		{"IPv6 localhost", "::1"},
		{"IPv6 full", "2001:0db8:85a3:0000:0000:8a2e:0370:7334"},
		{"empty", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hash := hashAddr(tt.addr)
			// hashAddr uses first 8 bytes of SHA256, encoded as 16 hex chars
			if len(hash) != 16 {
				t.Errorf("hashAddr(%q) length = %d, want 16", tt.addr, len(hash))
			}
		})
	}
}

func TestHashAddr_Different(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		addr1 string
		addr2 string
	}{
		{"different IPv4", "192.168.1.1", "192.168.1.2"},
		{"different last octet", "10.0.0.1", "10.0.0.2"},
		{"IPv4 vs IPv6", "127.0.0.1", "::1"},
		{"public vs private", "8.8.8.8", "192.168.1.1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hash1 := hashAddr(tt.addr1)
			hash2 := hashAddr(tt.addr2)

			if hash1 == hash2 {
				t.Errorf("Different addresses should produce different hashes: %q and %q both produced %s", tt.addr1, tt.addr2, hash1)
			}
		})
	}
}

func TestProfileKey(t *testing.T) {
	t.Parallel()

	age30 := 30
	age0 := 0

	tests := []struct {
		name   string
		filter model.ProfileFilter
		want   string
	}{
		{"all unset", model.ProfileFilter{}, "profile:none:none:none"},
		{"age only", model.ProfileFilter{Age: &age30}, "profile:30:none:none"},
		{"age zero is a value", model.ProfileFilter{Age: &age0}, "profile:0:none:none"},
		{"gender only", model.ProfileFilter{Gender: "male"}, "profile:none:male:none"},
		{"country only", model.ProfileFilter{Country: "US"}, "profile:none:none:US"},
		{"all set", model.ProfileFilter{Age: &age30, Gender: "female", Country: "IN"}, "profile:30:female:IN"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ProfileKey(tt.filter)
			if got != tt.want {
				t.Errorf("ProfileKey(%+v) = %q, want %q", tt.filter, got, tt.want)
			}
		})
	}
}

func TestProfileKey_IdenticalFiltersShareKey(t *testing.T) {
	t.Parallel()

	a := 25
	b := 25

	key1 := ProfileKey(model.ProfileFilter{Age: &a, Gender: "male", Country: "CA"})
	key2 := ProfileKey(model.ProfileFilter{Age: &b, Gender: "male", Country: "CA"})

	if key1 != key2 {
		t.Errorf("identical filters should share a key: %q vs %q", key1, key2)
	}
}
