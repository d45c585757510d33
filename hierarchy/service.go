package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jacentio/espalier/internal/ident"
)

// RootTitle is the fixed title given to every owner's root folder.
const RootTitle = "Root"

// Deleted reports the outcome of a cascade delete: the folder closure that
// was removed and the item ids those folders held. Items are not deleted by
// this package; the caller owns item lifecycle and can cascade from here.
type Deleted struct {
	Folders []FolderID
	Items   []ItemID
}

// Service implements the folder hierarchy operations. It is stateless apart
// from the store: every operation re-reads from storage and holds no lock
// across its reads and writes, relying on per-document atomicity only.
// Concurrent moves against the same folder can race; the re-verification
// pass in Move is a best-effort repair, not a hard guarantee.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a hierarchy service backed by store.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
	}
}

// InitializeRoot creates the one root folder for an owner. It is a one-time
// operation, not idempotent: it fails with ErrAlreadyInitialized if the owner
// already has any folder at all.
func (s *Service) InitializeRoot(ctx context.Context, owner OwnerID) (FolderID, error) {
	existing, err := s.store.FindByOwner(ctx, owner)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return "", ErrAlreadyInitialized
	}

	root := &Folder{
		ID:    FolderID(ident.NewFolderID()),
		Owner: owner,
		Title: RootTitle,
	}
	if err := s.store.Create(ctx, root); err != nil {
		return "", err
	}
	return root.ID, nil
}

// CreateChild allocates a new folder under parent. The parent must exist and
// be owned by owner. Duplicate titles among siblings are legal and not
// checked.
func (s *Service) CreateChild(ctx context.Context, owner OwnerID, title string, parent FolderID) (FolderID, error) {
	parentRec, err := s.store.FindOne(ctx, parent)
	if err != nil {
		return "", err
	}
	if parentRec.Owner != owner {
		return "", ErrNotOwned
	}

	child := &Folder{
		ID:    FolderID(ident.NewFolderID()),
		Owner: owner,
		Title: title,
	}
	if err := s.store.Create(ctx, child); err != nil {
		return "", err
	}
	if err := s.store.UpdateOne(ctx, parent, AddChild(child.ID)); err != nil {
		if errors.Is(err, ErrNoMatch) {
			// Parent vanished between the read and the write.
			return "", fmt.Errorf("attach %s to %s: %w", child.ID, parent, ErrStoreFailure)
		}
		return "", err
	}
	return child.ID, nil
}

// Rename replaces a folder's title.
func (s *Service) Rename(ctx context.Context, folder FolderID, title string) error {
	if err := s.store.UpdateOne(ctx, folder, SetTitle(title)); err != nil {
		if errors.Is(err, ErrNoMatch) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// IsDescendant reports whether target is reachable from ancestor by
// following one or more child edges. A folder does not count as its own
// descendant. The breadth-first walk keeps a visited set so it terminates
// even if the tree has been corrupted into a cycle, and treats a missing
// record as "no further descendants under that branch": the listing parent's
// edge is the authoritative structural fact, not the possibly-missing leaf.
func (s *Service) IsDescendant(ctx context.Context, target, ancestor FolderID) (bool, error) {
	visited := map[FolderID]bool{ancestor: true}
	queue := []FolderID{ancestor}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		rec, err := s.store.FindOne(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				s.logger.Warn("folder record missing during traversal",
					"folder", string(id),
				)
				continue
			}
			return false, err
		}
		for _, child := range rec.Children {
			if child == target {
				return true, nil
			}
			if !visited[child] {
				visited[child] = true
				queue = append(queue, child)
			}
		}
	}
	return false, nil
}

// Move re-parents folder under newParent. Preconditions are checked in
// order, first failure wins: folder exists, newParent exists, both share an
// owner, folder != newParent, and newParent is not a descendant of folder.
//
// The write sequence is remove-from-all-parents, add-to-new-parent,
// remove-from-all-other-parents. The trailing pass re-establishes the
// single-parent invariant even if an earlier bug or a concurrent write left
// the folder with more than one parent: the operation self-heals rather than
// assuming a clean prior state.
func (s *Service) Move(ctx context.Context, folder, newParent FolderID) (FolderID, error) {
	moved, err := s.store.FindOne(ctx, folder)
	if err != nil {
		return "", err
	}
	dest, err := s.store.FindOne(ctx, newParent)
	if err != nil {
		return "", err
	}
	if moved.Owner != dest.Owner {
		return "", ErrDifferentOwners
	}
	if folder == newParent {
		return "", ErrSelfMove
	}
	isDesc, err := s.IsDescendant(ctx, newParent, folder)
	if err != nil {
		return "", err
	}
	if isDesc {
		return "", ErrCyclicMove
	}

	if err := s.detachFromParents(ctx, moved.Owner, folder, ""); err != nil {
		return "", err
	}
	if err := s.store.UpdateOne(ctx, newParent, AddChild(folder)); err != nil {
		if errors.Is(err, ErrNoMatch) {
			return "", fmt.Errorf("attach %s to %s: %w", folder, newParent, ErrStoreFailure)
		}
		return "", err
	}
	// Re-verify: a concurrent move may have attached the folder elsewhere
	// between the first pass and the add.
	if err := s.detachFromParents(ctx, moved.Owner, folder, newParent); err != nil {
		return "", err
	}
	return folder, nil
}

// detachFromParents removes folder from the Children set of every folder in
// owner's forest except keep. Normally at most one folder lists it, but the
// sweep is deliberately exhaustive so a violated single-parent invariant is
// repaired rather than preserved.
func (s *Service) detachFromParents(ctx context.Context, owner OwnerID, folder, keep FolderID) error {
	forest, err := s.store.FindByOwner(ctx, owner)
	if err != nil {
		return err
	}
	for _, f := range forest {
		if f.ID == keep || !f.HasChild(folder) {
			continue
		}
		if err := s.store.UpdateOne(ctx, f.ID, RemoveChild(folder)); err != nil {
			if errors.Is(err, ErrNoMatch) {
				// Parent was deleted concurrently; its edge is gone either way.
				s.logger.Warn("parent vanished while detaching child",
					"parent", string(f.ID),
					"child", string(folder),
				)
				continue
			}
			return err
		}
	}
	return nil
}

// Delete removes folder and its entire descendant subtree. The closure is
// computed first, the folder is detached from its parent, then every record
// in the closure is removed in one bulk operation. Items held by deleted
// folders are not themselves deleted; they are reported in the result so the
// caller can cascade. Partial failure during the bulk delete is reported via
// an error wrapping ErrStoreFailure but is not rolled back: the partial
// result is still returned.
//
// The root folder is not structurally special here; refusing to delete it is
// a caller policy choice.
func (s *Service) Delete(ctx context.Context, folder FolderID) (*Deleted, error) {
	rec, err := s.store.FindOne(ctx, folder)
	if err != nil {
		return nil, err
	}

	closure, items, err := s.collectDescendants(ctx, folder)
	if err != nil {
		return nil, err
	}
	if err := s.detachFromParents(ctx, rec.Owner, folder, ""); err != nil {
		return nil, err
	}

	deleted := &Deleted{Folders: closure, Items: items}
	n, err := s.store.DeleteMany(ctx, closure)
	if err != nil {
		return deleted, fmt.Errorf("cascade delete %s: %w", folder, err)
	}
	if n != len(closure) {
		return deleted, fmt.Errorf("cascade delete %s removed %d of %d folders: %w",
			folder, n, len(closure), ErrStoreFailure)
	}
	return deleted, nil
}

// collectDescendants returns the descendant closure of id, id included,
// depth first, along with every item id held by a folder in the closure.
// Like IsDescendant it guards against cycles with a visited set and treats
// missing records as empty branches.
func (s *Service) collectDescendants(ctx context.Context, id FolderID) ([]FolderID, []ItemID, error) {
	var closure []FolderID
	var items []ItemID
	visited := make(map[FolderID]bool)

	var visit func(FolderID) error
	visit = func(id FolderID) error {
		if visited[id] {
			return nil
		}
		visited[id] = true

		rec, err := s.store.FindOne(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				s.logger.Warn("folder record missing during traversal",
					"folder", string(id),
				)
				return nil
			}
			return err
		}
		closure = append(closure, id)
		items = append(items, rec.Items...)
		for _, child := range rec.Children {
			if err := visit(child); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(id); err != nil {
		return nil, nil, err
	}
	return closure, items, nil
}

// PlaceItem puts item into folder. If the item already sits in folder the
// call is a no-op. If it sits in some other folder it is removed from there
// first, so an item lives in at most one folder without the caller needing
// to know its current location.
func (s *Service) PlaceItem(ctx context.Context, item ItemID, folder FolderID) error {
	rec, err := s.store.FindOne(ctx, folder)
	if err != nil {
		return err
	}
	if rec.HasItem(item) {
		return nil
	}

	holder, err := s.store.FindByItem(ctx, item)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if holder != nil && holder.ID != folder {
		if err := s.store.UpdateOne(ctx, holder.ID, RemoveItem(item)); err != nil && !errors.Is(err, ErrNoMatch) {
			return err
		}
	}

	if err := s.store.UpdateOne(ctx, folder, AddItem(item)); err != nil {
		if errors.Is(err, ErrNoMatch) {
			return fmt.Errorf("place %s in %s: %w", item, folder, ErrStoreFailure)
		}
		return err
	}
	return nil
}

// RemoveItem takes item out of whichever folder currently holds it. Fails
// with ErrNotFound if no folder does.
func (s *Service) RemoveItem(ctx context.Context, item ItemID) error {
	holder, err := s.store.FindByItem(ctx, item)
	if err != nil {
		return err
	}
	if err := s.store.UpdateOne(ctx, holder.ID, RemoveItem(item)); err != nil {
		if errors.Is(err, ErrNoMatch) {
			return fmt.Errorf("remove %s from %s: %w", item, holder.ID, ErrStoreFailure)
		}
		return err
	}
	return nil
}

// GetDetails returns the full record for folder.
func (s *Service) GetDetails(ctx context.Context, folder FolderID) (*Folder, error) {
	return s.store.FindOne(ctx, folder)
}

// GetChildren returns the ids of folder's direct children.
func (s *Service) GetChildren(ctx context.Context, folder FolderID) ([]FolderID, error) {
	rec, err := s.store.FindOne(ctx, folder)
	if err != nil {
		return nil, err
	}
	return rec.Children, nil
}

// GetItems returns the ids of the items placed in folder.
func (s *Service) GetItems(ctx context.Context, folder FolderID) ([]ItemID, error) {
	rec, err := s.store.FindOne(ctx, folder)
	if err != nil {
		return nil, err
	}
	return rec.Items, nil
}
