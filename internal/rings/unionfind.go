package rings

// UnionFind is a map-backed disjoint set over account ids. An id that has
// never been seen is its own root.
type UnionFind struct {
	parent map[string]string
}

// NewUnionFind returns an empty disjoint set.
func NewUnionFind() *UnionFind {
	return &UnionFind{parent: make(map[string]string)}
}

// Find returns the root of x, compressing the path on the way back.
func (u *UnionFind) Find(x string) string {
	root := x
	for {
		p, ok := u.parent[root]
		if !ok || p == root {
			break
		}
		root = p
	}
	for x != root {
		next := u.parent[x]
		u.parent[x] = root
		x = next
	}
	return root
}

// Union merges the sets of x and y; the root of x becomes the root of both.
func (u *UnionFind) Union(x, y string) {
	rx, ry := u.Find(x), u.Find(y)
	if rx != ry {
		u.parent[ry] = rx
	}
}
