package umrf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivePackageName(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"Pick And Place!", "ta_pick_and_place"},
		{"ta_pick_and_place", "ta_pick_and_place"},
		{"TaPickAndPlace", "ta_tapickandplace"},
		{"  spaced   out  ", "ta_spaced_out_"},
		{"_leading", "ta_leading"},
		{"Café Déjà-vu", "ta_cafe_dejavu"},
		{"my_ta_thing", "ta_my_ta_thing"},
		{"", "ta_"},
	}
	for _, tt := range tests {
		got := DerivePackageName(tt.raw)
		assert.Equal(t, tt.want, got, "DerivePackageName(%q)", tt.raw)
		assert.Equal(t, got, DerivePackageName(got), "not idempotent for %q", tt.raw)
	}
}

func TestDeriveClassName(t *testing.T) {
	tests := []struct {
		pkg, want string
	}{
		{"ta_pick_and_place", "TaPickAndPlace"},
		{"ta_x__y", "TaXY"},
		{"ta_2d_scan", "Ta2dScan"},
		{"TaPickAndPlace", "TaPickAndPlace"},
	}
	for _, tt := range tests {
		got := DeriveClassName(tt.pkg)
		assert.Equal(t, tt.want, got, "DeriveClassName(%q)", tt.pkg)
		assert.Equal(t, got, DeriveClassName(got))
	}
}

func TestValidatePackageName(t *testing.T) {
	assert.NoError(t, ValidatePackageName("ta_pick"))
	assert.ErrorIs(t, ValidatePackageName("Pick"), ErrInvalidName)
	assert.ErrorIs(t, ValidatePackageName("ta_"), ErrInvalidName)
}

func TestValidateGraphName(t *testing.T) {
	for _, ok := range []string{"demo", "pick_demo", "a..b", "with space"} {
		assert.NoError(t, ValidateGraphName(ok), ok)
	}
	for _, bad := range []string{"", ".", "..", "../escaped", "sub/graph", `dir\graph`} {
		assert.ErrorIs(t, ValidateGraphName(bad), ErrInvalidName, bad)
	}
}
