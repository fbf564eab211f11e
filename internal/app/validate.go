package app

import (
	"fmt"
	"regexp"
)

var sourceNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func validateSourceName(name string) error {
	if name == "" {
		return fmt.Errorf("source name is required")
	}
	if !sourceNamePattern.MatchString(name) {
		return fmt.Errorf("invalid source name %q (allowed: letters, numbers, ., _, -)", name)
	}
	return nil
}
