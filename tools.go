//go:build tools
// +build tools

// Package tools pins mockgen, which go:generate runs for internal/mocks,
// so it is tracked in go.mod.
package message_board

import (
	_ "go.uber.org/mock/mockgen"
)
