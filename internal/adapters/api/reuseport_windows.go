//go:build windows

package api

func setReusePort(uintptr) error { return nil }
