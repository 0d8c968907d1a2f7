// Package util provides utility functions for the survey-sensei application.
package util

import (
	"math/rand/v2"
	"strings"
)

// GenerateRandomID generates a random ID with the specified prefix and hex length.
// The returned ID will be in the format: "{prefix}{hex_string}".
// Uses math/rand/v2 for optimal performance with modern best practices.
func GenerateRandomID(prefix string, hexLength int) string {
	return prefix + GenerateRandomHex(hexLength)
}

// GenerateRandomHex generates a random hexadecimal string of the specified length.
// Uses math/rand/v2 with optimal entropy utilization for non-cryptographic purposes.
func GenerateRandomHex(length int) string {
	if length <= 0 {
		return ""
	}

	const hexChars = "0123456789abcdef"
	var builder strings.Builder
	builder.Grow(length) // Pre-allocate capacity for efficiency

	for i := 0; i < length; i++ {
		builder.WriteByte(hexChars[rand.IntN(16)])
	}

	return builder.String()
}

// GenerateRandomAlphaNumeric generates a random alphanumeric string of the specified length.
// Uses math/rand/v2 for optimal performance and modern best practices.
func GenerateRandomAlphaNumeric(length int) string {
	if length <= 0 {
		return ""
	}

	const chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	var builder strings.Builder
	builder.Grow(length) // Pre-allocate capacity for efficiency

	for i := 0; i < length; i++ {
		builder.WriteByte(chars[rand.IntN(len(chars))])
	}

	return builder.String()
}

// GenerateFlowID generates a unique flow controller ID with "flow_" prefix.
func GenerateFlowID() string {
	return GenerateRandomID("flow_", 16)
}

// GenerateSessionID generates a unique survey session ID with "sess_" prefix.
func GenerateSessionID() string {
	return GenerateRandomID("sess_", 16)
}

// GenerateProductID generates a unique product ID with "prod_" prefix.
func GenerateProductID() string {
	return GenerateRandomID("prod_", 12)
}

// GenerateShopperID generates a unique shopper ID with "shop_" prefix.
func GenerateShopperID() string {
	return GenerateRandomID("shop_", 12)
}

// GenerateReviewID generates a unique submitted-review ID with "rev_" prefix.
func GenerateReviewID() string {
	return GenerateRandomID("rev_", 16)
}
