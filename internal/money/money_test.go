package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Amount
		wantErr error
	}{
		{name: "whole rupees", in: "1500", want: 150000},
		{name: "two decimals", in: "1500.25", want: 150025},
		{name: "one decimal", in: "99.5", want: 9950},
		{name: "leading dot", in: ".75", want: 75},
		{name: "zero", in: "0.00", want: 0},
		{name: "negative", in: "-10.50", want: -1050},
		{name: "whitespace trimmed", in: "  42.00 ", want: 4200},
		{name: "too precise", in: "1.005", wantErr: ErrTooPrecise},
		{name: "empty", in: "", wantErr: ErrMalformedAmount},
		{name: "garbage", in: "12a.50", wantErr: ErrMalformedAmount},
		{name: "bare dot", in: ".", wantErr: ErrMalformedAmount},
		{name: "signed fraction", in: "1.-5", wantErr: ErrMalformedAmount},
		{name: "plus in fraction", in: "1.+5", wantErr: ErrMalformedAmount},
		{name: "double negative", in: "--5", wantErr: ErrMalformedAmount},
		{name: "leading plus", in: "+5", wantErr: ErrMalformedAmount},
		{name: "sign inside whole", in: "1-0.50", wantErr: ErrMalformedAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromFloatRoundsHalfToEven(t *testing.T) {
	// .005 at even/odd preceding digits: banker's rounding.
	assert.Equal(t, Amount(1002), FromFloat(10.025))
	assert.Equal(t, Amount(1004), FromFloat(10.035))
}

func TestString(t *testing.T) {
	assert.Equal(t, "1500.25", Amount(150025).String())
	assert.Equal(t, "0.05", Amount(5).String())
	assert.Equal(t, "-3.40", Amount(-340).String())
}

func TestFromRupees(t *testing.T) {
	assert.Equal(t, Amount(500000), FromRupees(5000))
}
