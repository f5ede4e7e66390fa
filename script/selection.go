package script

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCategory is returned for a category outside the four script parts.
	ErrUnknownCategory = errors.New("unknown component category")

	// ErrComponentNotFound is returned when no variant carries the requested id.
	ErrComponentNotFound = errors.New("component not found")
)

// Selection holds at most one chosen variant per category.
type Selection struct {
	Hook         *Hook         `json:"hook"`
	Bridge       *Bridge       `json:"bridge"`
	GoldenNugget *GoldenNugget `json:"goldenNugget"`
	WTA          *WTA          `json:"wta"`
}

// Valid reports whether all four parts are chosen.
func (s Selection) Valid() bool {
	return s.Hook != nil && s.Bridge != nil && s.GoldenNugget != nil && s.WTA != nil
}

// Missing returns the categories that still need a choice.
func (s Selection) Missing() []Category {
	var missing []Category
	if s.Hook == nil {
		missing = append(missing, CategoryHook)
	}
	if s.Bridge == nil {
		missing = append(missing, CategoryBridge)
	}
	if s.GoldenNugget == nil {
		missing = append(missing, CategoryGoldenNugget)
	}
	if s.WTA == nil {
		missing = append(missing, CategoryWTA)
	}
	return missing
}

// Clone returns a selection that shares no pointers with s.
func (s Selection) Clone() Selection {
	var out Selection
	if s.Hook != nil {
		h := *s.Hook
		out.Hook = &h
	}
	if s.Bridge != nil {
		b := *s.Bridge
		out.Bridge = &b
	}
	if s.GoldenNugget != nil {
		g := *s.GoldenNugget
		g.BulletPoints = append([]string(nil), s.GoldenNugget.BulletPoints...)
		out.GoldenNugget = &g
	}
	if s.WTA != nil {
		w := *s.WTA
		out.WTA = &w
	}
	return out
}

// AutoSelect picks the first hook, bridge and golden nugget, and the first
// engagement call to action (or the first call to action when none is).
func AutoSelect(c *Components) Selection {
	var sel Selection
	if c == nil {
		return sel
	}
	if len(c.Hooks) > 0 {
		h := c.Hooks[0]
		sel.Hook = &h
	}
	if len(c.Bridges) > 0 {
		b := c.Bridges[0]
		sel.Bridge = &b
	}
	if len(c.GoldenNuggets) > 0 {
		g := c.GoldenNuggets[0]
		sel.GoldenNugget = &g
	}
	if len(c.WTAs) > 0 {
		w := c.WTAs[0]
		for _, candidate := range c.WTAs {
			if candidate.ActionType == ActionEngagement {
				w = candidate
				break
			}
		}
		sel.WTA = &w
	}
	return sel
}

// Select replaces one field of sel with the variant of c carrying id.
func (c *Components) Select(sel Selection, category Category, id string) (Selection, error) {
	switch category {
	case CategoryHook:
		for _, h := range c.Hooks {
			if h.ID == id {
				sel.Hook = &h
				return sel, nil
			}
		}
	case CategoryBridge:
		for _, b := range c.Bridges {
			if b.ID == id {
				sel.Bridge = &b
				return sel, nil
			}
		}
	case CategoryGoldenNugget:
		for _, g := range c.GoldenNuggets {
			if g.ID == id {
				sel.GoldenNugget = &g
				return sel, nil
			}
		}
	case CategoryWTA:
		for _, w := range c.WTAs {
			if w.ID == id {
				sel.WTA = &w
				return sel, nil
			}
		}
	default:
		return sel, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return sel, fmt.Errorf("%w: %s %q", ErrComponentNotFound, category, id)
}
