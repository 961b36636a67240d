package constants

import "strings"

// ProductType is one of the three product families the shop builds.
type ProductType string

const (
	ProductFAB      ProductType = "FAB"
	ProductDoors    ProductType = "DOORS"
	ProductHarmonic ProductType = "HARMONIC"
)

var allProductTypes = []ProductType{ProductFAB, ProductDoors, ProductHarmonic}

// ProductTypes returns every known product family.
func ProductTypes() []ProductType {
	out := make([]ProductType, len(allProductTypes))
	copy(out, allProductTypes)
	return out
}

func (p ProductType) Valid() bool {
	for _, t := range allProductTypes {
		if t == p {
			return true
		}
	}
	return false
}

// CanonicalProductType maps a CODE_SORT value or free-text family name onto a
// product type. Unrecognized input falls back to FAB, the catch-all family.
func CanonicalProductType(input string) (ProductType, bool) {
	key := strings.ToUpper(strings.TrimSpace(input))
	switch {
	case key == "":
		return ProductFAB, false
	case strings.HasPrefix(key, "DOOR"), key == "D":
		return ProductDoors, true
	case strings.HasPrefix(key, "HARM"), key == "H":
		return ProductHarmonic, true
	case strings.HasPrefix(key, "FAB"), key == "F":
		return ProductFAB, true
	}
	return ProductFAB, false
}
