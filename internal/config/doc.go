// Package config handles featlint.yaml: named workflows of featlint
// invocations, optional help text, and the version gate that keeps an older
// binary from running a config written for a newer one.
package config
