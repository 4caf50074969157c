package types

// Status is a type for the lifecycle status of a persisted resource.
// Deletion in most flows is logical, not physical: a deleted record keeps its
// row but is excluded from queries.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)

func (s Status) String() string {
	return string(s)
}
