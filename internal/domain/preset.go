package domain

import (
	"fmt"
	"strings"
	"time"
)

type Preset struct {
	Name      string
	Config    SessionConfig
	UpdatedAt time.Time
}

func (p Preset) Validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(name, " \t/") {
		return fmt.Errorf("name %q must not contain whitespace or slashes", p.Name)
	}
	return nil
}
