// Package billing covers the credit purchase flow: the package catalog, the
// AbacatePay API client, checkout session creation and the webhook processor
// that grants credits exactly once per paid billing.
package billing

import "github.com/shopspring/decimal"

// ProviderName identifies the payment provider on stored transactions.
const ProviderName = "abacatepay"

// Package is one purchasable credit bundle. Prices are BRL.
type Package struct {
	Type    string
	Name    string
	Credits int
	Price   decimal.Decimal
}

var packages = map[string]Package{
	"single": {Type: "single", Name: "1 Crédito", Credits: 1, Price: decimal.RequireFromString("9.90")},
	"pack5":  {Type: "pack5", Name: "5 Créditos", Credits: 5, Price: decimal.RequireFromString("39.90")},
	"pack10": {Type: "pack10", Name: "10 Créditos", Credits: 10, Price: decimal.RequireFromString("69.90")},
}

// PackageByType looks up a package by its wire identifier.
func PackageByType(packageType string) (Package, bool) {
	pkg, ok := packages[packageType]
	return pkg, ok
}

// PriceCents returns the price in integer centavos, which is what AbacatePay
// expects on the wire.
func (p Package) PriceCents() int64 {
	return p.Price.Mul(decimal.NewFromInt(100)).IntPart()
}

// PriceFloat returns the price as a float for storage and audit metadata.
func (p Package) PriceFloat() float64 {
	return p.Price.InexactFloat64()
}
