package core

import (
	"errors"
)

var (
	ErrSwapchainBooting   = errors.New("swapchain resized or recreated, booting")
	ErrWindowCreation     = errors.New("failed to create window")
	ErrContextCreation    = errors.New("failed to create graphics context")
	ErrComponentCreation  = errors.New("failed to create application component")
	ErrApplicationClosed  = errors.New("application already cleaned up")
	ErrAlreadyInitialized = errors.New("application already initialized")
	ErrNotInitialized     = errors.New("application not initialized")
	ErrCoreAlreadyRunning = errors.New("core already running")
	ErrCoreNotRunning     = errors.New("core not running")
)
