package orders

import (
	"crypto/rand"
	"fmt"
)

const orderNumberAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// newOrderNumber returns a human-readable unique order reference such as
// ORD-7F3KQ29MTX. Collisions are handled by retrying the whole transaction.
func newOrderNumber() (string, error) {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating order number: %w", err)
	}
	for i, b := range buf {
		buf[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return "ORD-" + string(buf), nil
}
