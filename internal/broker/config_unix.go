//go:build !windows

package broker

func defaultPipeName() string { return "/tmp/cord-ipc" }
