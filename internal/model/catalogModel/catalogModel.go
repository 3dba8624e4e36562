package catalogModel

import "github.com/shopspring/decimal"

type PropertyResponse struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	City       string          `json:"city"`
	TokenPrice decimal.Decimal `json:"tokenPrice"`
	Status     string          `json:"status"`
}

type PropertiesResponse struct {
	Properties []PropertyResponse `json:"properties"`
}

type PropertyDetailsResponse struct {
	Property       PropertyResponse `json:"property"`
	PricePerShare  decimal.Decimal  `json:"pricePerShare"`
	OfferingAmount decimal.Decimal  `json:"offeringAmount"`
}
