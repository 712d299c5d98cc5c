package readmodel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGameFilter_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   GameFilter
		want GameFilter
	}{
		{
			name: "zero value gets defaults",
			in:   GameFilter{},
			want: GameFilter{Limit: DefaultListLimit, SortBy: SortByCreatedAt},
		},
		{
			name: "limit clamped to maximum",
			in:   GameFilter{Limit: 5000, SortBy: SortByName},
			want: GameFilter{Limit: MaxListLimit, SortBy: SortByName},
		},
		{
			name: "negative offset reset",
			in:   GameFilter{Limit: 10, Offset: -3, SortBy: SortByPriceAsc},
			want: GameFilter{Limit: 10, SortBy: SortByPriceAsc},
		},
		{
			name: "unknown sort falls back to created_at",
			in:   GameFilter{Limit: 10, SortBy: "popularity"},
			want: GameFilter{Limit: 10, SortBy: SortByCreatedAt},
		},
		{
			name: "valid filter untouched",
			in:   GameFilter{Name: "star", Status: "released", Limit: 50, Offset: 25, SortBy: SortByPriceDesc},
			want: GameFilter{Name: "star", Status: "released", Limit: 50, Offset: 25, SortBy: SortByPriceDesc},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.in.Normalize())
		})
	}
}
