//go:build windows

package broker

func defaultPipeName() string { return `\\.\pipe\cord-ipc` }
