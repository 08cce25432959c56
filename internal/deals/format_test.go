package deals

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatThousands(t *testing.T) {
	cases := map[float64]string{
		12345:  "$12.345k",
		1000:   "$1k",
		0:      "$0k",
		500:    "$0.5k",
		-2500:  "$-2.5k",
		250000: "$250k",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatThousands(in), "value %v", in)
	}
}

func TestFormatThousandsExtremes(t *testing.T) {
	cases := map[float64]string{
		1e21:                   "1e+21",
		-1e21:                  "-1e+21",
		1.5e-7:                 "1.5e-7",
		1e-300:                 "1e-300",
		0.000001:               "0.000001",
		1.2345678901234568e20:  "123456789012345680000",
		1.7976931348623157e308: "1.7976931348623157e+308",
		math.Copysign(0, -1):   "0",
		math.Inf(1):            "Infinity",
	}
	for in, want := range cases {
		assert.Equal(t, want, jsNumber(in), "value %v", in)
	}
	assert.Equal(t, "$Infinityk", FormatThousands(math.Inf(1)))
	assert.Equal(t, "$NaNk", FormatThousands(math.NaN()))
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("01/02/2023", "15/03/2023", time.UTC)
	require.NoError(t, err)
	require.True(t, r.Complete())
	assert.Equal(t, time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), *r.Start)
	assert.Equal(t, time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), *r.End)
	assert.Equal(t, "01/02/2023", FormatDate(r.Start))

	r, err = ParseDateRange("", " ", time.UTC)
	require.NoError(t, err)
	assert.False(t, r.Complete())
	assert.Equal(t, "", FormatDate(r.End))

	_, err = ParseDateRange("2023-02-01", "", time.UTC)
	assert.Error(t, err)
}
