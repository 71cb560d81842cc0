package phone

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		region string
		want   string
		ok     bool
	}{
		{name: "us_national", raw: "(201) 555-0123", region: "US", want: "+12015550123", ok: true},
		{name: "already_e164", raw: "+12015550123", region: "GB", want: "+12015550123", ok: true},
		{name: "gb_national", raw: "0121 234 5678", region: "gb", want: "+441212345678", ok: true},
		{name: "default_region", raw: "201-555-0123", region: "", want: "+12015550123", ok: true},
		{name: "empty", raw: "   ", region: "US", want: "", ok: false},
		{name: "garbage", raw: "not a phone", region: "US", want: "", ok: false},
		{name: "too_short", raw: "123", region: "US", want: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := Normalize(tt.raw, tt.region)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}
