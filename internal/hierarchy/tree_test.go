// File: internal/hierarchy/tree_test.go
package hierarchy

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xkilldash9x/assessment-export/api/schemas"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func unit(id, name string, children ...schemas.BusinessUnit) schemas.BusinessUnit {
	bu := schemas.BusinessUnit{ID: id, Children: children}
	if name != "" {
		bu.Name = schemas.Some(name)
	}
	return bu
}

func ids(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestFlatten_BreadthFirstOrder(t *testing.T) {
	// Arrange
	forest := []schemas.BusinessUnit{
		unit("a", "A",
			unit("a1", "A1", unit("a1x", "A1X")),
			unit("a2", "A2"),
		),
		unit("b", "B", unit("b1", "B1")),
	}

	// Act
	tree := Flatten(forest)

	// Assert
	want := []string{"a", "b", "a1", "a2", "b1", "a1x"}
	if diff := cmp.Diff(want, ids(tree.Nodes())); diff != "" {
		t.Errorf("Flatten() order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 6, tree.Len())

	a1x, ok := tree.Lookup("a1x")
	require.True(t, ok)
	assert.Equal(t, 2, a1x.Depth)
	assert.Equal(t, 5, a1x.Index())
}

func TestFlatten_Empty(t *testing.T) {
	assert.Empty(t, Flatten(nil).Nodes())
	assert.Empty(t, Flatten([]schemas.BusinessUnit{}).Nodes())
}

func TestFlatten_DoesNotMutateInput(t *testing.T) {
	forest := []schemas.BusinessUnit{unit("a", "A", unit("a1", "A1"))}
	before := fmt.Sprintf("%+v", forest)

	Flatten(forest)

	assert.Equal(t, before, fmt.Sprintf("%+v", forest))
}

func TestParentAndPath(t *testing.T) {
	tree := Flatten([]schemas.BusinessUnit{
		unit("root", "Root",
			unit("mid", "",
				unit("leaf", "Leaf"),
			),
		),
	})

	root, _ := tree.Lookup("root")
	mid, _ := tree.Lookup("mid")
	leaf, _ := tree.Lookup("leaf")

	t.Run("roots have no parent", func(t *testing.T) {
		_, ok := tree.Parent(root)
		assert.False(t, ok)
		assert.True(t, root.IsRoot())
		assert.Equal(t, "N/A", tree.ParentName(root).Or(schemas.PlaceholderLabel))
		assert.Equal(t, "Root", tree.Path(root))
	})

	t.Run("missing names render as placeholder", func(t *testing.T) {
		assert.Equal(t, "Root > N/A", tree.Path(mid))
		assert.Equal(t, "Root > N/A > Leaf", tree.Path(leaf))
		assert.False(t, tree.ParentName(leaf).Set, "unnamed parent stays missing until render")
	})

	t.Run("parent name", func(t *testing.T) {
		assert.Equal(t, "Root", tree.ParentName(mid).Value)
		p, ok := tree.Parent(leaf)
		require.True(t, ok)
		assert.Equal(t, "mid", p.ID)
	})
}

func TestLookup_DuplicateIDsLastWins(t *testing.T) {
	tree := Flatten([]schemas.BusinessUnit{
		unit("dup", "First"),
		unit("other", "Other", unit("dup", "Second")),
	})

	n, ok := tree.Lookup("dup")
	require.True(t, ok)
	assert.Equal(t, "Second", n.Name.Value)
	assert.Equal(t, 3, tree.Len(), "both occurrences are still flattened")

	_, ok = tree.Lookup("nope")
	assert.False(t, ok)
}

// randomForest builds a forest with unique ids and records each child's
// structural parent.
func randomForest(r *rand.Rand, parents map[string]string) []schemas.BusinessUnit {
	var counter int
	var build func(parent string, depth int) schemas.BusinessUnit
	build = func(parent string, depth int) schemas.BusinessUnit {
		counter++
		id := fmt.Sprintf("bu-%d", counter)
		parents[id] = parent
		bu := schemas.BusinessUnit{ID: id, Name: schemas.Some("Unit " + id)}
		if depth < 4 {
			for i := r.Intn(4); i > 0; i-- {
				bu.Children = append(bu.Children, build(id, depth+1))
			}
		}
		return bu
	}

	roots := make([]schemas.BusinessUnit, r.Intn(4))
	for i := range roots {
		roots[i] = build("", 0)
	}
	return roots
}

func TestFlatten_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		parents := make(map[string]string)
		tree := Flatten(randomForest(r, parents))
		nodes := tree.Nodes()

		// Every node exactly once.
		require.Len(t, nodes, len(parents))
		seen := make(map[string]bool)
		for _, n := range nodes {
			require.False(t, seen[n.ID], "node %s flattened twice", n.ID)
			seen[n.ID] = true
		}

		for _, n := range nodes {
			// Back-reference equals the structural parent.
			p, ok := tree.Parent(n)
			if parents[n.ID] == "" {
				require.False(t, ok)
			} else {
				require.True(t, ok)
				require.Equal(t, parents[n.ID], p.ID)
				require.Less(t, p.Index(), n.Index(), "parents precede children")
			}

			// A chain of k back-references yields k+1 segments.
			segments := strings.Split(tree.Path(n), PathSeparator)
			require.Len(t, segments, n.Depth+1)
			require.Equal(t, n.Name.Value, segments[len(segments)-1])
		}

		// Depths never decrease in breadth-first order.
		for j := 1; j < len(nodes); j++ {
			require.LessOrEqual(t, nodes[j-1].Depth, nodes[j].Depth)
		}
	}
}
