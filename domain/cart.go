package domain

import (
	"strconv"
	"strings"
	"time"
)

// CartItem is one line of the customer's cart. Weight is in pounds.
type CartItem struct {
	ID           string  `json:"id"`
	VariantID    string  `json:"variant_id,omitempty"`
	Title        string  `json:"title"`
	VariantTitle string  `json:"variant_title,omitempty"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	Weight       float64 `json:"weight"`
	Image        string  `json:"image,omitempty"`
}

// Cart is the externally owned cart as read at checkout time.
type Cart struct {
	ID        string     `json:"id,omitempty"`
	OwnerID   string     `json:"owner_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// TotalQuantity sums item quantities.
func (c *Cart) TotalQuantity() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

const defaultItemWeightLb = 1.0

// ParseWeight converts a label such as "800g", "1.6kg", "16 oz" or "5 lb" to pounds.
// Unparseable input counts as one pound.
func ParseWeight(label string) float64 {
	cleaned := strings.ToLower(strings.TrimSpace(label))
	num, err := strconv.ParseFloat(keepNumeric(cleaned), 64)
	if err != nil {
		return defaultItemWeightLb
	}

	switch {
	case strings.Contains(cleaned, "kg"):
		return num * 2.20462
	case strings.Contains(cleaned, "oz"):
		return num * 0.0625
	case strings.Contains(cleaned, "lb"):
		return num
	case strings.Contains(cleaned, "g"):
		return num * 0.00220462
	default:
		return num
	}
}

func keepNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
