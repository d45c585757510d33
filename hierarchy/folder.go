package hierarchy

import "context"

// FolderID identifies a folder record.
type FolderID string

// OwnerID identifies the user controlling a folder. The package never looks
// owners up; it only compares them for equality.
type OwnerID string

// ItemID identifies externally-owned content placed inside a folder. The
// package stores and moves these ids but never interprets them.
type ItemID string

// Folder is the stored record. Only forward edges are kept: a folder's parent
// is whichever folder lists it in Children, discovered by scanning the
// owner's forest. Every mutating operation is responsible for keeping that
// derived relation single-valued and acyclic.
type Folder struct {
	// ID is assigned at creation and immutable.
	ID FolderID

	// Owner is assigned at creation and immutable. A folder's parent always
	// shares the same owner.
	Owner OwnerID

	// Title is a display string. Duplicate titles are legal, including
	// between siblings.
	Title string

	// Children holds the ids of direct child folders. A folder appears in at
	// most one Children set at a time.
	Children []FolderID

	// Items holds the ids of content placed in this folder. An item appears
	// in at most one Items set at a time.
	Items []ItemID
}

// HasChild reports whether id is a direct child of f.
func (f *Folder) HasChild(id FolderID) bool {
	for _, c := range f.Children {
		if c == id {
			return true
		}
	}
	return false
}

// HasItem reports whether item is placed in f.
func (f *Folder) HasItem(item ItemID) bool {
	for _, i := range f.Items {
		if i == item {
			return true
		}
	}
	return false
}

// MutationOp selects the field mutation an UpdateOne call applies.
type MutationOp int

const (
	MutateAddChild MutationOp = iota + 1
	MutateRemoveChild
	MutateAddItem
	MutateRemoveItem
	MutateSetTitle
)

// Mutation describes a single-document field mutation. Set mutations are
// idempotent: adding a present member or removing an absent one succeeds
// without effect.
type Mutation struct {
	Op    MutationOp
	Child FolderID
	Item  ItemID
	Title string
}

// AddChild appends a child id to the folder's Children set.
func AddChild(id FolderID) Mutation { return Mutation{Op: MutateAddChild, Child: id} }

// RemoveChild removes a child id from the folder's Children set.
func RemoveChild(id FolderID) Mutation { return Mutation{Op: MutateRemoveChild, Child: id} }

// AddItem appends an item id to the folder's Items set.
func AddItem(id ItemID) Mutation { return Mutation{Op: MutateAddItem, Item: id} }

// RemoveItem removes an item id from the folder's Items set.
func RemoveItem(id ItemID) Mutation { return Mutation{Op: MutateRemoveItem, Item: id} }

// SetTitle replaces the folder's title.
func SetTitle(title string) Mutation { return Mutation{Op: MutateSetTitle, Title: title} }

// Store is the persistence boundary the service depends on. Implementations
// provide per-document atomicity only; they perform no referential-integrity
// checks and offer no multi-document transaction. All tree correctness is
// owned by the Service.
type Store interface {
	// Create stores a new folder record. Returns ErrAlreadyExists if a
	// record with the same id is already present.
	Create(ctx context.Context, f *Folder) error

	// FindOne returns the folder record for id, or ErrNotFound.
	FindOne(ctx context.Context, id FolderID) (*Folder, error)

	// UpdateOne atomically applies a single field mutation to the record for
	// id. Returns ErrNoMatch if no record matched.
	UpdateOne(ctx context.Context, id FolderID, m Mutation) error

	// DeleteMany removes the records for ids and returns how many were
	// actually deleted. Absent ids are not an error.
	DeleteMany(ctx context.Context, ids []FolderID) (int, error)

	// FindByOwner returns every folder record owned by owner.
	FindByOwner(ctx context.Context, owner OwnerID) ([]*Folder, error)

	// FindByItem returns the folder whose Items set contains item, or
	// ErrNotFound if no folder holds it.
	FindByItem(ctx context.Context, item ItemID) (*Folder, error)
}
