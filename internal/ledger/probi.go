package ledger

import "fmt"

// ValidateProbi checks that p is a non-empty decimal integer string.
// Probi is the smallest currency unit, so fractions are not allowed.
func ValidateProbi(p string) error {
	if p == "" {
		return fmt.Errorf("probi is empty")
	}
	for i, r := range p {
		if r < '0' || r > '9' {
			return fmt.Errorf("probi %q: invalid character %q at %d", p, r, i)
		}
	}
	return nil
}
