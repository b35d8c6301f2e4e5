package subscription

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"
)

func TestPlanDescriber_Describe(t *testing.T) {
	tests := []struct {
		name    string
		price   *stripe.Price
		product *stripe.Product
		err     error
		want    string
		ok      bool
	}{
		{name: "nil price"},
		{name: "nickname", price: &stripe.Price{ID: "p", Nickname: " Premium Monthly "}, want: "Premium Monthly", ok: true},
		{name: "expanded product", price: &stripe.Price{ID: "p", Product: &stripe.Product{ID: "prod_1", Name: "Premium Plus"}}, want: "Premium Plus", ok: true},
		{name: "fetched product", price: &stripe.Price{ID: "p", Product: &stripe.Product{ID: "prod_1"}}, product: &stripe.Product{ID: "prod_1", Name: "Premium Plus Yearly"}, want: "Premium Plus Yearly", ok: true},
		{name: "fetch fails", price: &stripe.Price{ID: "p", Product: &stripe.Product{ID: "prod_1"}}, err: errors.New("boom")},
		{name: "unnamed product", price: &stripe.Price{ID: "p", Product: &stripe.Product{ID: "prod_1"}}, product: &stripe.Product{ID: "prod_1"}},
		{name: "no product", price: &stripe.Price{ID: "p"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &processorMock{}
			if tt.product != nil || tt.err != nil {
				proc.On("GetProduct", mock.Anything, "prod_1").Return(tt.product, tt.err).Once()
			}

			name, ok := NewPlanDescriber(proc, zap.NewNop()).Describe(context.Background(), tt.price)
			assert.Equal(t, tt.want, name)
			assert.Equal(t, tt.ok, ok)
			proc.AssertExpectations(t)
		})
	}
}
