package enums

import "fmt"

// PromotionType selects how a promotion overrides a base price.
type PromotionType string

const (
	PromotionTypeFixed   PromotionType = "fixed"
	PromotionTypePercent PromotionType = "percent"
)

var validPromotionTypes = []PromotionType{
	PromotionTypeFixed,
	PromotionTypePercent,
}

// String implements fmt.Stringer.
func (p PromotionType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PromotionType.
func (p PromotionType) IsValid() bool {
	for _, candidate := range validPromotionTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromotionType converts raw input into a PromotionType.
func ParsePromotionType(value string) (PromotionType, error) {
	for _, candidate := range validPromotionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion type %q", value)
}
