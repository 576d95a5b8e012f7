package index

// Hit is the result of a nearest-colour search.
type Hit struct {
	// Ref is the ordinal of the matched record.
	Ref uint32
	// Distance is measured in the index's own metric.
	Distance float64
}

// Index answers nearest-colour queries.
type Index interface {
	// Search returns the closest indexed colour, or false when the index is empty.
	Search(r, g, b uint8) (Hit, bool)
	// Len returns the number of indexed colours.
	Len() int
}
