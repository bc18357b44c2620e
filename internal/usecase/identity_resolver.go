package usecase

import "github.com/user/rating-ingest/internal/entity"

// IdentityResolver maps canonical school display names to their ids. It is
// an immutable snapshot; build a new one per batch.
type IdentityResolver struct {
	ids map[string]int64
}

// NewIdentityResolver copies ids so later changes to the map are not seen.
func NewIdentityResolver(ids map[string]int64) *IdentityResolver {
	snapshot := make(map[string]int64, len(ids))
	for name, id := range ids {
		snapshot[name] = id
	}
	return &IdentityResolver{ids: snapshot}
}

// IdentityResolverFromCatalog builds a resolver straight from an identity
// catalog. If two ids share a name, the smaller id wins.
func IdentityResolverFromCatalog(catalog entity.Catalog) *IdentityResolver {
	ids := make(map[string]int64, len(catalog))
	for id, name := range catalog {
		if existing, ok := ids[name]; ok && existing < id {
			continue
		}
		ids[name] = id
	}
	return &IdentityResolver{ids: ids}
}

// Resolve is an exact, case-sensitive lookup. ok is false for names that are
// not in the catalog.
func (r *IdentityResolver) Resolve(name string) (id int64, ok bool) {
	id, ok = r.ids[name]
	return id, ok
}

// Len returns the number of known schools.
func (r *IdentityResolver) Len() int {
	return len(r.ids)
}
