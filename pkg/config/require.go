package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

// MustSecret rejects signing keys shorter than 32 bytes.
func MustSecret(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
	if len(value) < 32 {
		log.Fatalf("env %s must be at least 32 bytes", envName)
	}
}
