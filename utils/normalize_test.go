package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "52998224725", DigitsOnly("529.982.247-25"))
	assert.Equal(t, "11987654321", DigitsOnly("+(11) 98765-4321"))
	assert.Equal(t, "", DigitsOnly("abc"))
}

func TestNormalizePostalCode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "01310-100", want: "01310100"},
		{in: "01310100", want: "01310100"},
		{in: "1310100", want: "01310100"},
		{in: " 123 ", want: "00000123"},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "123456789", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := NormalizePostalCode(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidPostalCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeEmailAndText(t *testing.T) {
	assert.Equal(t, "ana@lending.test", NormalizeEmail("  Ana@Lending.TEST "))
	assert.Equal(t, "Maria da Silva", NormalizeText("  Maria   da\tSilva "))
}

func TestIsValidDocument(t *testing.T) {
	assert.True(t, IsValidDocument("52998224725"))
	assert.True(t, IsValidDocument("11222333000181"))

	assert.False(t, IsValidDocument("52998224724"))
	assert.False(t, IsValidDocument("11222333000182"))
	assert.False(t, IsValidDocument("11111111111"))
	assert.False(t, IsValidDocument("00000000000000"))
	assert.False(t, IsValidDocument("123"))
	assert.False(t, IsValidDocument("5299822472a"))
}
