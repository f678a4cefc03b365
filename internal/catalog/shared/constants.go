package shared

const (
	// Default pagination
	DefaultPage  = 1
	DefaultLimit = 20

	// Sort directions
	SortAsc  = "asc"
	SortDesc = "desc"
)

// SortOrder builds a safe ORDER BY fragment from a whitelist of columns.
func SortOrder(allowed map[string]string, sortBy, sortDir string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = allowed[""]
	}
	dir := "ASC"
	if sortDir == SortDesc {
		dir = "DESC"
	}
	return column + " " + dir
}
