package utils

import (
	"math/rand"
	"time"
)

const bookingReferenceLength = 8
const letterBytes = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

var seededRand = rand.New(rand.NewSource(time.Now().UnixNano()))

// GenerateBookingReference returns a short human-readable code printed on
// booking confirmations. Ambiguous characters (0/O, 1/I/L) are excluded.
func GenerateBookingReference() string {
	b := make([]byte, bookingReferenceLength)
	for i := range b {
		b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
	}
	return string(b)
}
