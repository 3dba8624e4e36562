package model

import "github.com/shopspring/decimal"

type Property struct {
	PropertyRef string
	Title       string
	City        string
	TokenPrice  decimal.Decimal
	Active      bool
}

type PropertyDetails struct {
	Property       Property
	PricePerShare  decimal.Decimal
	OfferingAmount decimal.Decimal
}

// SharePrice is the price used for minimum-investment validation and share
// count math: the offering's price per share, or the listing token price
// when the offering doesn't carry one.
func (d PropertyDetails) SharePrice() decimal.Decimal {
	if d.PricePerShare.IsPositive() {
		return d.PricePerShare
	}
	return d.Property.TokenPrice
}
