package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type Role string

const (
	RoleEmpty    Role = "empty"
	RoleObstacle Role = "obstacle"
	RoleBase     Role = "base"
	RoleScout    Role = "scout"
	RoleGatherer Role = "gatherer"
	RoleCrystal  Role = "crystal"
	RoleEnergy   Role = "energy"
)

// Roles lists every role in display order.
var Roles = []Role{RoleEmpty, RoleObstacle, RoleBase, RoleScout, RoleGatherer, RoleCrystal, RoleEnergy}

func ParseRole(raw string) (Role, error) {
	candidate := Role(strings.ToLower(strings.TrimSpace(raw)))
	for _, role := range Roles {
		if role == candidate {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown cell role %q", raw)
}

// CellSymbols maps every role to a distinct single-rune display token.
type CellSymbols struct {
	Empty    string
	Obstacle string
	Base     string
	Scout    string
	Gatherer string
	Crystal  string
	Energy   string
}

func DefaultCellSymbols() CellSymbols {
	return CellSymbols{
		Empty:    " ",
		Obstacle: "8",
		Base:     "#",
		Scout:    "S",
		Gatherer: "G",
		Crystal:  "C",
		Energy:   "E",
	}
}

func (c CellSymbols) Symbol(role Role) string {
	switch role {
	case RoleEmpty:
		return c.Empty
	case RoleObstacle:
		return c.Obstacle
	case RoleBase:
		return c.Base
	case RoleScout:
		return c.Scout
	case RoleGatherer:
		return c.Gatherer
	case RoleCrystal:
		return c.Crystal
	case RoleEnergy:
		return c.Energy
	default:
		return ""
	}
}

func (c *CellSymbols) set(role Role, symbol string) {
	switch role {
	case RoleEmpty:
		c.Empty = symbol
	case RoleObstacle:
		c.Obstacle = symbol
	case RoleBase:
		c.Base = symbol
	case RoleScout:
		c.Scout = symbol
	case RoleGatherer:
		c.Gatherer = symbol
	case RoleCrystal:
		c.Crystal = symbol
	case RoleEnergy:
		c.Energy = symbol
	}
}

// RoleOf resolves a grid token back to its role. The second return value is
// false for tokens no role maps to.
func (c CellSymbols) RoleOf(token string) (Role, bool) {
	for _, role := range Roles {
		if c.Symbol(role) == token {
			return role, true
		}
	}
	return "", false
}

func (c CellSymbols) validate() error {
	seen := make(map[string]Role, len(Roles))
	for _, role := range Roles {
		symbol := c.Symbol(role)
		if !utf8.ValidString(symbol) {
			return &ValidationError{Field: symbolField(role), Reason: "must be valid UTF-8"}
		}
		if utf8.RuneCountInString(symbol) != 1 {
			return &ValidationError{Field: symbolField(role), Reason: "must be exactly one character"}
		}
		if other, ok := seen[symbol]; ok {
			return &ValidationError{Field: symbolField(role), Reason: fmt.Sprintf("duplicates %s symbol %q", other, symbol)}
		}
		seen[symbol] = role
	}
	return nil
}

func symbolField(role Role) string {
	return "cell_symbols." + string(role)
}
