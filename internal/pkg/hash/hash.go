package hash

// Fingerprinter derives a stable keyed digest that stands in for a secret
// value in storage keys and logs.
type Fingerprinter interface {
	// Fingerprint returns the digest of value.
	Fingerprint(value string) string
	// Match reports whether value has the given fingerprint.
	Match(fingerprint, value string) bool
}
