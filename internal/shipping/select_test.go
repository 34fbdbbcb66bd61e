package shipping

import (
	"testing"

	"github.com/fjod/go_cart/storefront-checkout/domain"
	"github.com/stretchr/testify/assert"
)

func TestSelectCheapest(t *testing.T) {
	tests := []struct {
		name    string
		methods []domain.ShippingMethod
		want    string
	}{
		{
			name: "skips local pickup",
			methods: []domain.ShippingMethod{
				{ID: "a", Price: 12},
				{ID: "b", Price: 8},
				{ID: "local-pickup", Price: 0},
			},
			want: "b",
		},
		{
			name: "tie keeps first",
			methods: []domain.ShippingMethod{
				{ID: "standard", Price: 0, IsFree: true},
				{ID: "economy", Price: 0, IsFree: true},
			},
			want: "standard",
		},
		{
			name:    "only local pickup",
			methods: []domain.ShippingMethod{{ID: "local-pickup", Price: 0}},
			want:    "",
		},
		{
			name:    "empty",
			methods: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectCheapest(tt.methods, domain.LocalPickupMethodID))
		})
	}
}
