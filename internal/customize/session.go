package customize

import (
	"fmt"
	"strings"

	"storefront-service/internal/models"
	"storefront-service/internal/pricing"

	"github.com/google/uuid"
)

// GroupError reports a cardinality violation for a single addon group.
type GroupError struct {
	GroupID   int64
	GroupName string
	Kind      string
}

// Group error kinds
const (
	KindUnderSelected = "under_selected"
	KindOverSelected  = "over_selected"
)

func (e *GroupError) Error() string {
	if e.Kind == KindOverSelected {
		return fmt.Sprintf("too many options selected in %q", e.GroupName)
	}
	return fmt.Sprintf("a selection is required in %q", e.GroupName)
}

// Session is a per-product customization session. It accumulates addon
// selections for one product and, on confirm, emits a priced line item.
// Sessions are not safe for concurrent use; one shopper interaction owns
// a session at a time.
type Session struct {
	ID         string
	CartID     string
	Product    models.Product
	Groups     []models.AddonGroup
	Selections models.Selections
	Quantity   int
	Note       string
}

// NewSession seeds an empty selection per referenced group and resets
// quantity and note to defaults.
func NewSession(product models.Product, groups []models.AddonGroup) *Session {
	selections := make(models.Selections, len(groups))
	for _, group := range groups {
		selections[group.ID] = make(map[int64]int)
	}

	return &Session{
		ID:         uuid.New().String(),
		Product:    product,
		Groups:     groups,
		Selections: selections,
		Quantity:   1,
	}
}

// Toggle flips the selection state of one addon item.
//
// Single-choice groups (MaxSelection == 1) have radio semantics: selecting
// an unselected item replaces any prior choice; selecting the current choice
// clears the group, except that a required group keeps its choice (the click
// is a no-op). Multi-choice groups set or clear the item, silently refusing
// a set that would exceed MaxSelection.
//
// Unknown groups, unknown items and unavailable items are ignored.
func (s *Session) Toggle(groupID, itemID int64) {
	group := s.group(groupID)
	if group == nil {
		return
	}

	item := findItem(group, itemID)
	if item == nil || !item.Available {
		return
	}

	chosen := s.Selections[groupID]
	if chosen == nil {
		chosen = make(map[int64]int)
		s.Selections[groupID] = chosen
	}

	if group.MaxSelection == 1 {
		if chosen[itemID] > 0 {
			if group.IsRequired {
				return
			}
			delete(chosen, itemID)
			return
		}
		for id := range chosen {
			delete(chosen, id)
		}
		chosen[itemID] = 1
		return
	}

	if chosen[itemID] > 0 {
		delete(chosen, itemID)
		return
	}
	if selectedCount(chosen) >= group.MaxSelection {
		return
	}
	chosen[itemID] = 1
}

// SetQuantity sets the line quantity. Values below 1 are ignored.
func (s *Session) SetQuantity(quantity int) {
	if quantity < 1 {
		return
	}
	s.Quantity = quantity
}

// SetNote sets the free-text observation prefix.
func (s *Session) SetNote(note string) {
	s.Note = strings.TrimSpace(note)
}

// Validate checks every group's cardinality against the current selections.
// It is a pure check over the selection map, independent of how it was built.
func Validate(groups []models.AddonGroup, selections models.Selections) []GroupError {
	var errs []GroupError
	for _, group := range groups {
		count := selectedCount(selections[group.ID])
		if group.IsRequired && count < group.MinSelection {
			errs = append(errs, GroupError{GroupID: group.ID, GroupName: group.Name, Kind: KindUnderSelected})
		}
		if count > group.MaxSelection {
			errs = append(errs, GroupError{GroupID: group.ID, GroupName: group.Name, Kind: KindOverSelected})
		}
	}
	return errs
}

// Confirm re-validates the session and, on success, returns a new line item
// with a freshly minted cart-scoped id. On failure it returns the first
// validation error and leaves the session untouched.
func (s *Session) Confirm() (models.LineItem, error) {
	if errs := Validate(s.Groups, s.Selections); len(errs) > 0 {
		first := errs[0]
		return models.LineItem{}, &first
	}

	return models.LineItem{
		ID:          uuid.New().String(),
		ProductID:   s.Product.ID,
		Name:        s.Product.Name,
		UnitPrice:   pricing.UnitPrice(s.Product, s.Groups, s.Selections),
		Quantity:    s.Quantity,
		Observation: s.observation(),
	}, nil
}

// observation joins the shopper note with the names of every selected item
// across all groups, note first.
func (s *Session) observation() string {
	parts := make([]string, 0, 8)
	if s.Note != "" {
		parts = append(parts, s.Note)
	}
	for _, group := range s.Groups {
		chosen := s.Selections[group.ID]
		for _, item := range group.Items {
			if chosen[item.ID] > 0 {
				parts = append(parts, item.Name)
			}
		}
	}
	return strings.Join(parts, ", ")
}

func (s *Session) group(groupID int64) *models.AddonGroup {
	for i := range s.Groups {
		if s.Groups[i].ID == groupID {
			return &s.Groups[i]
		}
	}
	return nil
}

func findItem(group *models.AddonGroup, itemID int64) *models.AddonItem {
	for i := range group.Items {
		if group.Items[i].ID == itemID {
			return &group.Items[i]
		}
	}
	return nil
}

func selectedCount(chosen map[int64]int) int {
	var count int
	for _, qty := range chosen {
		count += qty
	}
	return count
}
