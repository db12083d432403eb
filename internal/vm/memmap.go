package vm

import "fmt"

// memmap.go implements the memory map: resolution of the three logical
// names to backing AddressSpaces, with user-requested aliasing and
// transitive closure, and the read-only bit that travels with the name
// "program" rather than with whatever array backs it.

// Logical address space names.
const (
	SpaceRAM     = "ram"
	SpaceProgram = "program"
	SpaceStack   = "stack"
)

var spaceNames = []string{SpaceRAM, SpaceProgram, SpaceStack}

// Alias is one user-supplied equivalence directive, e.g. "ram=program" from
// --map-memory.
type Alias struct {
	A, B string
}

// MemoryMap owns the backing AddressSpaces and resolves logical names to
// them. It is built once at VM construction and is immutable afterward,
// except for the one-shot transition to locked (program becomes read-only).
type MemoryMap struct {
	backing map[string]*AddressSpace // one entry per logical name, possibly sharing *AddressSpace
	locked  bool
}

// NewMemoryMap builds the map. sizes gives the requested size, in cells, for
// each of ram/program/stack before aliasing; when names are aliased the
// combined backing array is sized to the larger of the requested sizes.
func NewMemoryMap(sizes map[string]int, charBit int, aliases []Alias) (*MemoryMap, error) {
	groups := newUnionFind(spaceNames)

	for _, al := range aliases {
		if !isSpaceName(al.A) || !isSpaceName(al.B) {
			return nil, fmt.Errorf("%w: unknown space in alias %s=%s", ErrOutOfBounds, al.A, al.B)
		}

		groups.union(al.A, al.B)
	}

	backing := make(map[string]*AddressSpace, len(spaceNames))
	roots := map[string]*AddressSpace{}

	for _, name := range spaceNames {
		root := groups.find(name)

		space, ok := roots[root]
		if !ok {
			size := 0
			for _, member := range spaceNames {
				if groups.find(member) == root {
					if s := sizes[member]; s > size {
						size = s
					}
				}
			}

			space = NewAddressSpace(size, charBit)
			roots[root] = space
		}

		backing[name] = space
	}

	return &MemoryMap{backing: backing}, nil
}

func isSpaceName(name string) bool {
	for _, n := range spaceNames {
		if n == name {
			return true
		}
	}

	return false
}

// LockProgram marks the program space read-only. Called once, after the
// program image is loaded.
func (mm *MemoryMap) LockProgram() { mm.locked = true }

// Resolve returns a View over the named logical space.
func (mm *MemoryMap) Resolve(name string) (*View, error) {
	space, ok := mm.backing[name]
	if !ok {
		return nil, fmt.Errorf("%w: no such space %q", ErrOutOfBounds, name)
	}

	return &View{name: name, space: space, mm: mm}, nil
}

// Aliased reports whether two logical names share a backing array.
func (mm *MemoryMap) Aliased(a, b string) bool {
	sa, ok1 := mm.backing[a]
	sb, ok2 := mm.backing[b]

	return ok1 && ok2 && sa == sb
}

// View is a named handle onto a backing AddressSpace. Writes through a View
// named "program" are rejected once the map is locked, even if the same
// backing array is also reachable as "ram" (in which case writes through
// "ram" still succeed — the read-only bit belongs to the name, not the
// array).
type View struct {
	name  string
	space *AddressSpace
	mm    *MemoryMap
}

func (v *View) Size() int { return v.space.Size() }

func (v *View) writable() error {
	if v.name == SpaceProgram && v.mm.locked {
		return ErrReadOnly
	}

	return nil
}

func (v *View) wrap(addr Addr, err error) error {
	if err == nil {
		return nil
	}

	return &SpaceError{Space: v.name, Addr: addr, Err: err}
}

func (v *View) LoadCell(addr Addr) (Cell, error) {
	c, err := v.space.LoadCell(addr)
	return c, v.wrap(addr, err)
}

func (v *View) StoreCell(addr Addr, c Cell) error {
	if err := v.writable(); err != nil {
		return v.wrap(addr, err)
	}

	return v.wrap(addr, v.space.StoreCell(addr, c))
}

func (v *View) LoadWord(addr Addr, wordSize int) (Word, error) {
	w, err := v.space.LoadWord(addr, wordSize)
	return w, v.wrap(addr, err)
}

func (v *View) StoreWord(addr Addr, w Word, wordSize int) error {
	if err := v.writable(); err != nil {
		return v.wrap(addr, err)
	}

	return v.wrap(addr, v.space.StoreWord(addr, w, wordSize))
}

func (v *View) LoadAddr(addr Addr, addrSize int) (Addr, error) {
	a, err := v.space.LoadAddr(addr, addrSize)
	return a, v.wrap(addr, err)
}

func (v *View) StoreAddr(addr Addr, a Addr, addrSize int) error {
	if err := v.writable(); err != nil {
		return v.wrap(addr, err)
	}

	return v.wrap(addr, v.space.StoreAddr(addr, a, addrSize))
}

func (v *View) LoadBytes(addr Addr, n int) ([]Cell, error) {
	cells, err := v.space.LoadBytes(addr, n)
	return cells, v.wrap(addr, err)
}

func (v *View) StoreBytes(addr Addr, cells []Cell) error {
	if err := v.writable(); err != nil {
		return v.wrap(addr, err)
	}

	return v.wrap(addr, v.space.StoreBytes(addr, cells))
}

// unionFind is a tiny disjoint-set structure for resolving transitive
// aliasing among the (few) logical space names.
type unionFind struct {
	parent map[string]string
}

func newUnionFind(names []string) *unionFind {
	parent := make(map[string]string, len(names))
	for _, n := range names {
		parent[n] = n
	}

	return &unionFind{parent: parent}
}

func (u *unionFind) find(name string) string {
	for u.parent[name] != name {
		u.parent[name] = u.parent[u.parent[name]]
		name = u.parent[name]
	}

	return name
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}
