package api

import (
	"errors"
	"fmt"
)

// Validator - интерфейс, который могут реализовать DTO
type Validator interface {
	Validate() error
}

func (s GameSummary) Validate() error {
	if s.CurrentPlayers < 0 || s.MaxPlayers < 0 {
		return errors.New("player counts cannot be negative")
	}
	return nil
}

func (u CatalogUpdate) Validate() error {
	for id, g := range u.Games {
		if id == "" {
			return errors.New("game id is required")
		}
		if err := g.Validate(); err != nil {
			return fmt.Errorf("game %s: %w", id, err)
		}
	}
	return nil
}

func (p PrivilegedRelay) Validate() error {
	if p.Channel == "" {
		return errors.New("channel is required")
	}
	return nil
}

func (r AssignedRole) Validate() error {
	if r.ID < -1 {
		return fmt.Errorf("invalid player slot %d", r.ID)
	}
	return nil
}

func (c DirectChat) Validate() error {
	if c.From == "" {
		return errors.New("from is required")
	}
	return nil
}
