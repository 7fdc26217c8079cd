package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depbundle/internal/types"
)

func TestSplitNameVersion(t *testing.T) {
	tests := []struct {
		key     string
		name    string
		version string
		wantErr bool
	}{
		{key: "lodash@4.17.21", name: "lodash", version: "4.17.21"},
		{key: "@babel/core@7.20.0", name: "@babel/core", version: "7.20.0"},
		{key: "chalk@^5.0.0", name: "chalk", version: "^5.0.0"},
		{key: "lodash@", wantErr: true},
		{key: "lodash", wantErr: true},
		{key: "@std/path", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			name, version, err := SplitNameVersion(tt.key)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.version, version)
		})
	}
}

func TestSplitMergedKey(t *testing.T) {
	tests := []struct {
		key     string
		want    []string
		wantErr bool
	}{
		{
			key:  "fdir@6.4.6_picomatch@4.0.2",
			want: []string{"fdir@6.4.6", "picomatch@4.0.2"},
		},
		{
			key:  "is-number@7.0.0",
			want: []string{"is-number@7.0.0"},
		},
		{
			key:  "a@1.0.0_b@2.0.0_c@3.0.0",
			want: []string{"a@1.0.0", "b@2.0.0", "c@3.0.0"},
		},
		{key: "noversion", wantErr: true},
		{key: "a@_b@1.0.0", wantErr: true},
		{key: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := SplitMergedKey(tt.key)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected split (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitDependencyRefRebind(t *testing.T) {
	registry, ref := SplitDependencyRef("alias@npm:real@1.0.0", types.RegistryJSR)
	assert.Equal(t, types.RegistryNPM, registry)
	assert.Equal(t, "real@1.0.0", ref)
}

func TestSplitDependencyRefScopedRebind(t *testing.T) {
	registry, ref := SplitDependencyRef("@scope/alias@npm:real@1.0.0", types.RegistryJSR)
	assert.Equal(t, types.RegistryNPM, registry)
	assert.Equal(t, "real@1.0.0", ref)
}

func TestSplitDependencyRefExplicitRegistry(t *testing.T) {
	registry, ref := SplitDependencyRef("jsr:@std/path@1.0.6", types.RegistryNPM)
	assert.Equal(t, types.RegistryJSR, registry)
	assert.Equal(t, "@std/path@1.0.6", ref)
}

func TestSplitDependencyRefInheritsParentRegistry(t *testing.T) {
	registry, ref := SplitDependencyRef("lodash@4.17.21", types.RegistryJSR)
	assert.Equal(t, types.RegistryJSR, registry)
	assert.Equal(t, "lodash@4.17.21", ref)
}

func TestParseStrictLabel(t *testing.T) {
	name, version, ok := ParseStrictLabel("lodash@4.17.21")
	require.True(t, ok)
	assert.Equal(t, "lodash", name)
	assert.Equal(t, "4.17.21", version)

	_, _, ok = ParseStrictLabel("lodash@^1.2.3")
	assert.False(t, ok)

	_, _, ok = ParseStrictLabel("lodash")
	assert.False(t, ok)

	name, _, ok = ParseStrictLabel("@babel/core@7.20.0")
	require.True(t, ok)
	assert.Equal(t, "@babel/core", name)
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "left-pad", CleanName("left-pad@^1.2.3"))
	assert.Equal(t, "@babel/core", CleanName("@babel/core@^7.20.0"))
	assert.Equal(t, "plain", CleanName("plain"))
}

func TestIsRangeSpecifier(t *testing.T) {
	assert.True(t, IsRangeSpecifier("^1.2.3"))
	assert.True(t, IsRangeSpecifier("~1.0.0"))
	assert.False(t, IsRangeSpecifier("1.2.3"))
	assert.False(t, IsRangeSpecifier(">=1.0.0"))
	assert.False(t, IsRangeSpecifier(""))
}

func TestSplitNameVersionErrorCode(t *testing.T) {
	_, _, err := SplitNameVersion("lodash@")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
