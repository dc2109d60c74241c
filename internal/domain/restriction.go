package domain

import "sort"

type restrictionKind uint8

const (
	restrictionNone restrictionKind = iota
	restrictionIDs
	restrictionEmpty
)

// Restriction is the identifier set produced by filter resolution. It is
// either unrestricted, a non-empty set of beach IDs, or empty. An empty
// restriction means no row can match and no list query needs to run.
type Restriction struct {
	kind restrictionKind
	ids  map[string]struct{}
}

// Unrestricted returns a restriction that admits every beach.
func Unrestricted() Restriction {
	return Restriction{kind: restrictionNone}
}

// EmptyRestriction returns a restriction that admits nothing.
func EmptyRestriction() Restriction {
	return Restriction{kind: restrictionEmpty}
}

// RestrictTo admits exactly ids. No ids yields the empty restriction.
func RestrictTo(ids []string) Restriction {
	if len(ids) == 0 {
		return EmptyRestriction()
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return Restriction{kind: restrictionIDs, ids: set}
}

// Intersect narrows r to the ids it shares with other.
func (r Restriction) Intersect(ids []string) Restriction {
	switch r.kind {
	case restrictionEmpty:
		return r
	case restrictionNone:
		return RestrictTo(ids)
	}

	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := r.ids[id]; ok {
			kept = append(kept, id)
		}
	}
	return RestrictTo(kept)
}

// IsUnrestricted reports whether r admits every beach.
func (r Restriction) IsUnrestricted() bool { return r.kind == restrictionNone }

// IsEmpty reports whether r admits nothing.
func (r Restriction) IsEmpty() bool { return r.kind == restrictionEmpty }

// IDs returns the admitted ids in ascending order, or nil when r is
// unrestricted or empty.
func (r Restriction) IDs() []string {
	if r.kind != restrictionIDs {
		return nil
	}
	out := make([]string, 0, len(r.ids))
	for id := range r.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of admitted ids, or -1 when unrestricted.
func (r Restriction) Len() int {
	switch r.kind {
	case restrictionNone:
		return -1
	case restrictionEmpty:
		return 0
	}
	return len(r.ids)
}
