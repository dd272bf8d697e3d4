package ged

import (
	"fmt"
	"iter"
	"time"

	"lexged/internal/domain"
)

// ArchivedRootID is the well-known id of the category root that holds
// archived entity subtrees.
const ArchivedRootID = "archived"

// ArchivedRootName is the display label of the archived category root.
const ArchivedRootName = "Arquivados"

// Tree is the canonical folder forest. All structural mutation goes through
// its methods so the forest invariant (every non-category node has exactly
// one parent, reachable from a category root) is enforced in one place.
//
// Version is the optimistic-concurrency token managed by the store: Load
// fills it, Save commits only if it is still current.
type Tree struct {
	Roots []*FolderNode `json:"roots"`

	Version int64 `json:"-"`
}

// NewTree returns an empty forest.
func NewTree() *Tree {
	return &Tree{}
}

// FindByID locates a node anywhere in the forest by depth-first search.
// Returns nil if absent.
func (t *Tree) FindByID(id string) *FolderNode {
	for _, root := range t.Roots {
		if found := findInSubtree(root, id); found != nil {
			return found
		}
	}
	return nil
}

func findInSubtree(node *FolderNode, id string) *FolderNode {
	if node.ID == id {
		return node
	}
	for _, child := range node.Children {
		if found := findInSubtree(child, id); found != nil {
			return found
		}
	}
	return nil
}

// FindOrCreateCategoryRoot returns the category root with the given id,
// creating it exactly once on first use.
func (t *Tree) FindOrCreateCategoryRoot(id, name string) *FolderNode {
	for _, root := range t.Roots {
		if root.ID == id {
			return root
		}
	}
	root := &FolderNode{
		ID:        id,
		Name:      name,
		Kind:      KindCategory,
		CreatedAt: time.Now(),
	}
	t.Roots = append(t.Roots, root)
	return root
}

// Attach appends node under the parent identified by parentID and sets the
// node's ParentID. The node id must not already exist anywhere in the
// forest; uniqueness is validated here rather than assumed by convention.
func (t *Tree) Attach(parentID string, node *FolderNode) error {
	parent := t.FindByID(parentID)
	if parent == nil {
		return fmt.Errorf("attach %q: parent %q: %w", node.ID, parentID, domain.ErrParentNotFound)
	}
	if !node.Kind.Valid() || node.Kind == KindCategory {
		return fmt.Errorf("attach %q: kind %q: %w", node.ID, node.Kind, domain.ErrValidation)
	}
	if existing := t.FindByID(node.ID); existing != nil {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("folder %q already exists in the tree", node.ID),
			ResourceType: "folder",
			ResourceID:   existing.ID,
		}
	}
	node.ParentID = parent.ID
	parent.Children = append(parent.Children, node)
	return nil
}

// Detach removes the node (subtree intact) from its current parent and
// returns it. The first half of every move. Category roots cannot be
// detached.
func (t *Tree) Detach(nodeID string) (*FolderNode, error) {
	node := t.FindByID(nodeID)
	if node == nil {
		return nil, fmt.Errorf("detach %q: %w", nodeID, domain.ErrNodeNotFound)
	}
	if node.Kind == KindCategory {
		return nil, fmt.Errorf("detach %q: category roots are fixed: %w", nodeID, domain.ErrValidation)
	}

	parent := t.FindByID(node.ParentID)
	if parent == nil {
		// ParentID always resolves for attached nodes; a miss here means
		// the forest invariant was already broken upstream.
		return nil, fmt.Errorf("detach %q: parent %q: %w", nodeID, node.ParentID, domain.ErrParentNotFound)
	}

	for i, child := range parent.Children {
		if child.ID == nodeID {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			node.ParentID = ""
			return node, nil
		}
	}
	return nil, fmt.Errorf("detach %q: not among children of %q: %w", nodeID, parent.ID, domain.ErrNodeNotFound)
}

// Remove detaches and discards the subtree permanently. Irreversible.
func (t *Tree) Remove(nodeID string) error {
	_, err := t.Detach(nodeID)
	return err
}

// Walk returns a pre-order traversal over the whole forest. Each call
// starts a fresh traversal. Stability is not guaranteed if the tree
// mutates mid-walk; callers that mutate based on traversal results must
// materialize a snapshot first.
func (t *Tree) Walk() iter.Seq[*FolderNode] {
	return func(yield func(*FolderNode) bool) {
		for _, root := range t.Roots {
			if !walkSubtree(root, yield) {
				return
			}
		}
	}
}

func walkSubtree(node *FolderNode, yield func(*FolderNode) bool) bool {
	if !yield(node) {
		return false
	}
	for _, child := range node.Children {
		if !walkSubtree(child, yield) {
			return false
		}
	}
	return true
}

// EntityRoots collects every entity-root node in the forest, in pre-order.
func (t *Tree) EntityRoots() []*FolderNode {
	var roots []*FolderNode
	for node := range t.Walk() {
		if node.Kind == KindEntityRoot && node.Entity != nil {
			roots = append(roots, node)
		}
	}
	return roots
}

// Clone returns a deep copy of the forest carrying the same version.
func (t *Tree) Clone() *Tree {
	c := &Tree{Version: t.Version}
	c.Roots = make([]*FolderNode, len(t.Roots))
	for i, root := range t.Roots {
		c.Roots[i] = root.Clone()
	}
	return c
}

// Validate checks the forest invariant: top-level nodes are category roots
// with no parent, every other node's ParentID matches its owner, and no id
// appears twice.
func (t *Tree) Validate() error {
	seen := make(map[string]struct{})
	for _, root := range t.Roots {
		if root.Kind != KindCategory {
			return fmt.Errorf("top-level node %q has kind %q, want %q", root.ID, root.Kind, KindCategory)
		}
		if root.ParentID != "" {
			return fmt.Errorf("category root %q has parent %q", root.ID, root.ParentID)
		}
		if err := validateSubtree(root, seen); err != nil {
			return err
		}
	}
	return nil
}

func validateSubtree(node *FolderNode, seen map[string]struct{}) error {
	if _, dup := seen[node.ID]; dup {
		return fmt.Errorf("duplicate node id %q", node.ID)
	}
	seen[node.ID] = struct{}{}

	for _, child := range node.Children {
		if child.ParentID != node.ID {
			return fmt.Errorf("node %q owned by %q but claims parent %q", child.ID, node.ID, child.ParentID)
		}
		if child.Kind == KindCategory {
			return fmt.Errorf("category node %q nested under %q", child.ID, node.ID)
		}
		if err := validateSubtree(child, seen); err != nil {
			return err
		}
	}
	return nil
}
