package tron

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{
			name:    "valid mainnet address",
			address: "TNPeeaaFB7K9cmo4uQpcU32zGK8G1NYqeL",
			want:    true,
		},
		{
			name:    "valid address with mixed case",
			address: "TLa2f6VPqDgRE67v1736s7bJ8Ray5wYjU7",
			want:    true,
		},
		{
			name:    "empty string",
			address: "",
			want:    false,
		},
		{
			name:    "too short",
			address: "TNPeeaaFB7K9cmo4uQpcU32zGK8G1NYqe",
			want:    false,
		},
		{
			name:    "too long",
			address: "TNPeeaaFB7K9cmo4uQpcU32zGK8G1NYqeLL",
			want:    false,
		},
		{
			name:    "wrong prefix",
			address: "ANPeeaaFB7K9cmo4uQpcU32zGK8G1NYqeL",
			want:    false,
		},
		{
			name:    "lowercase prefix",
			address: "tNPeeaaFB7K9cmo4uQpcU32zGK8G1NYqeL",
			want:    false,
		},
		{
			name:    "contains zero",
			address: "TNPeeaaFB7K9cmo4uQpcU32zGK8G1NY0eL",
			want:    false,
		},
		{
			name:    "contains capital O",
			address: "TNPeeaaFB7K9cmo4uQpcU32zGK8G1NYOeL",
			want:    false,
		},
		{
			name:    "contains capital I",
			address: "TNPeeaaFB7K9cmo4uQpcU32zGK8G1NYIeL",
			want:    false,
		},
		{
			name:    "contains lowercase l",
			address: "TNPeeaaFB7K9cmo4uQpcU32zGK8G1NYleL",
			want:    false,
		},
		{
			name:    "ethereum style address",
			address: "0x1234567890123456789012345678901234567890",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidAddress(tt.address); got != tt.want {
				t.Errorf("IsValidAddress(%q) = %v, want %v", tt.address, got, tt.want)
			}
		})
	}
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

func genBase58Body(length int) gopter.Gen {
	return gen.SliceOfN(length, gen.IntRange(0, len(base58Alphabet)-1).Map(func(i int) rune {
		return rune(base58Alphabet[i])
	})).Map(func(runes []rune) string {
		return string(runes)
	})
}

func TestIsValidAddress_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("any T-prefixed 34-char base58 string is valid", prop.ForAll(
		func(body string) bool {
			return IsValidAddress("T" + body)
		},
		genBase58Body(33),
	))

	properties.Property("validity is length-exact", prop.ForAll(
		func(body string) bool {
			return !IsValidAddress("T"+body+"1") && !IsValidAddress("T"+body[:32])
		},
		genBase58Body(33),
	))

	properties.Property("excluded glyphs invalidate at any position", prop.ForAll(
		func(body string, pos int, glyph string) bool {
			idx := pos % len(body)
			mutated := body[:idx] + glyph + body[idx+1:]
			return !IsValidAddress("T" + mutated)
		},
		genBase58Body(33),
		gen.IntRange(0, 32),
		gen.OneConstOf("0", "O", "I", "l"),
	))

	properties.TestingRun(t)
}
