package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		size   int
		length int
	}{
		{TokenSize128, 22},
		{TokenSize256, 43},
		{TokenSize512, 86},
	}
	for _, tt := range tests {
		tok, err := GenerateToken(tt.size)
		require.NoError(t, err)
		require.Len(t, tok, tt.length)
		require.NotContains(t, tok, "=")
	}

	_, err := GenerateToken(0)
	require.Error(t, err)
}

func TestFingerprintTokenIsDeterministic(t *testing.T) {
	require.Equal(t, FingerprintToken("abc"), FingerprintToken("abc"))
	require.NotEqual(t, FingerprintToken("abc"), FingerprintToken("abd"))
	require.Len(t, FingerprintToken("abc"), 43)
}

func TestRandomString(t *testing.T) {
	const alphabet = "ABC"
	s, err := RandomString(alphabet, 64)
	require.NoError(t, err)
	require.Len(t, s, 64)
	for _, c := range s {
		require.True(t, strings.ContainsRune(alphabet, c))
	}
}
