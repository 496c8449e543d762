// Package locator finds the cells of a transaction that carry a given
// type script.
package locator

import (
	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/types"
)

// FindCells returns the indices of every cell of role whose type hash
// is h, in ascending order.
func FindCells(src dasguard.CellSource, h types.TypeHash, role types.CellRole) []int {
	var out []int
	for i, c := range src.CellsOf(role) {
		if c.HasType(h) {
			out = append(out, i)
		}
	}
	return out
}

// FindUniqueCell returns the index of the only cell of role whose type
// hash is h. Zero or several matches are rejections: the registry
// protocol never has more than one live cell per script role.
func FindUniqueCell(src dasguard.CellSource, h types.TypeHash, role types.CellRole) (int, error) {
	found := -1
	for i, c := range src.CellsOf(role) {
		if !c.HasType(h) {
			continue
		}
		if found >= 0 {
			return 0, dasguard.Reject(types.CategoryLocator, dasguard.ErrCellAmbiguous,
				"type %s in %s at %d and %d", h, role, found, i)
		}
		found = i
	}
	if found < 0 {
		return 0, dasguard.Reject(types.CategoryLocator, dasguard.ErrCellAbsent, "type %s in %s", h, role)
	}
	return found, nil
}
