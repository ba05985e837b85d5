package pointledger

import "github.com/xraph/pointledger/types"

// Re-export common types for convenience so users don't have to import types package.

// Points is re-exported from types package.
type Points = types.Points

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Points constructors
var (
	NewPoints = types.NewPoints
	SumPoints = types.SumPoints
)

// ZeroPoints is re-exported from types package.
const ZeroPoints = types.ZeroPoints

// Re-export Entity constructor
var NewEntity = types.NewEntity
