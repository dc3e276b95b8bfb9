package core

import "strings"

// PathSeparator joins ancestor names in a category path.
const PathSeparator = " > "

// CategoryLookup resolves a category by ID.
type CategoryLookup func(id int64) (Category, error)

// Ancestors returns c's ancestors from the root down to its direct parent.
// A parent chain that revisits a category yields ErrCategoryCycle.
func Ancestors(c Category, lookup CategoryLookup) ([]Category, error) {
	seen := map[int64]bool{c.ID: true}
	var chain []Category
	cur := c
	for cur.ParentID != nil {
		pid := *cur.ParentID
		if seen[pid] {
			return nil, ErrCategoryCycle
		}
		seen[pid] = true
		parent, err := lookup(pid)
		if err != nil {
			return nil, err
		}
		chain = append(chain, parent)
		cur = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// FullPath renders "Parent > Child", walking any number of ancestors.
func FullPath(c Category, lookup CategoryLookup) (string, error) {
	ancestors, err := Ancestors(c, lookup)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(ancestors)+1)
	for _, a := range ancestors {
		names = append(names, a.Name)
	}
	names = append(names, c.Name)
	return strings.Join(names, PathSeparator), nil
}

// CheckParent validates that c may hang under its ParentID: the parent must
// share c's polarity and the link must not close a cycle.
func CheckParent(c Category, lookup CategoryLookup) error {
	if c.ParentID == nil {
		return nil
	}
	if c.ID != 0 && *c.ParentID == c.ID {
		return ErrSelfParent
	}
	parent, err := lookup(*c.ParentID)
	if err != nil {
		return err
	}
	if parent.TransactionType != c.TransactionType {
		return Invalidf("parent category %q is %s, expected %s", parent.Name, parent.TransactionType, c.TransactionType)
	}
	if !parent.IsGlobal() && parent.Owner != c.Owner {
		return ErrNotFound
	}
	ancestors, err := Ancestors(parent, lookup)
	if err != nil {
		return err
	}
	for _, a := range ancestors {
		if c.ID != 0 && a.ID == c.ID {
			return ErrCategoryCycle
		}
	}
	return nil
}
