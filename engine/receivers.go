package engine

import (
	"sort"

	"tipline/model"
)

// ReceiverSelection is the recipient set of one submission context:
// mandatory (forcefully selected) receivers, the optional ones the
// whistleblower may add, and the current selection.
type ReceiverSelection struct {
	Context   *model.Context
	Mandatory []model.Receiver
	Optional  []model.Receiver

	selected map[string]bool
	narrowed map[string]bool
}

// SelectReceivers resolves the recipient set for a context. Receivers the
// context references but that are missing from known are skipped: the
// schema may still name a deleted receiver.
//
// When prior is a non-empty earlier selection and the context allows
// recipient selection, the manual choice is preserved verbatim, so
// re-entering the same context is idempotent. Otherwise the selection is
// rebuilt: mandatory receivers are always pre-selected, and
// select_all_receivers pre-selects everything.
func SelectReceivers(ctx *model.Context, known map[string]model.Receiver, prior map[string]bool) *ReceiverSelection {
	rs := &ReceiverSelection{Context: ctx, selected: make(map[string]bool)}

	for _, id := range ctx.Receivers {
		r, ok := known[id]
		if !ok {
			continue
		}
		if r.ForcefullySelected {
			rs.Mandatory = append(rs.Mandatory, r)
		} else {
			rs.Optional = append(rs.Optional, r)
		}
		if ctx.SelectAllReceivers || r.ForcefullySelected {
			rs.selected[r.ID] = true
		}
	}

	if len(prior) > 0 && ctx.AllowRecipientsSelection {
		rs.selected = make(map[string]bool, len(prior))
		for id, on := range prior {
			if on {
				rs.selected[id] = true
			}
		}
		for _, r := range rs.Mandatory {
			rs.selected[r.ID] = true
		}
	}

	return rs
}

// Selected returns the selected receiver ids, sorted for stable output.
func (rs *ReceiverSelection) Selected() []string {
	ids := make([]string, 0, len(rs.selected))
	for id, on := range rs.selected {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Snapshot copies the current selection, suitable as the prior argument
// of a later SelectReceivers call.
func (rs *ReceiverSelection) Snapshot() map[string]bool {
	out := make(map[string]bool, len(rs.selected))
	for id, on := range rs.selected {
		out[id] = on
	}
	return out
}

func (rs *ReceiverSelection) IsSelected(id string) bool {
	return rs.selected[id]
}

func (rs *ReceiverSelection) mandatory(id string) bool {
	for _, r := range rs.Mandatory {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (rs *ReceiverSelection) optional(id string) bool {
	for _, r := range rs.Optional {
		if r.ID == id {
			return true
		}
	}
	return false
}

// Narrow restricts the optional receivers to the intersection with the
// triggered set. Mandatory receivers are never removed. A nil triggered
// set lifts the narrowing again.
func (rs *ReceiverSelection) Narrow(triggered map[string]bool) {
	rs.narrowed = triggered
	if triggered == nil {
		return
	}
	for id := range rs.selected {
		if !rs.mandatory(id) && !triggered[id] {
			delete(rs.selected, id)
		}
	}
}

// Selectable reports whether the given optional receiver may currently be
// added.
func (rs *ReceiverSelection) Selectable(id string) bool {
	if !rs.optional(id) {
		return false
	}
	return rs.narrowed == nil || rs.narrowed[id]
}

// Toggle flips an optional receiver in or out of the selection.
// Exceeding maximum_selectable_receivers is a validation failure, never a
// silent truncation.
func (rs *ReceiverSelection) Toggle(id string) error {
	if !rs.Context.AllowRecipientsSelection {
		return validationErr(CodeSelectionFrozen)
	}
	if rs.mandatory(id) {
		return validationErr(CodeReceiverMandatory)
	}
	if !rs.optional(id) {
		return validationErr(CodeReceiverUnknown)
	}

	if rs.selected[id] {
		delete(rs.selected, id)
		return nil
	}

	if !rs.Selectable(id) {
		return validationErr(CodeReceiverNarrowed)
	}
	if max := rs.Context.MaximumSelectableReceivers; max > 0 {
		added := 0
		for sel := range rs.selected {
			if !rs.mandatory(sel) {
				added++
			}
		}
		if added >= max {
			return validationErr(CodeReceiverLimit)
		}
	}

	rs.selected[id] = true
	return nil
}
