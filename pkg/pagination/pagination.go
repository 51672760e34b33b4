package pagination

// PageSize is the fixed page size across all listings.
const PageSize = 10

// Clamp normalizes 1-indexed page numbers; zero and negative pages read
// as page 1.
func Clamp(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func Offset(page int) int {
	return (Clamp(page) - 1) * PageSize
}

func TotalPages(totalElements int64) int {
	pages := int((totalElements + PageSize - 1) / PageSize)
	if pages < 1 {
		return 0
	}
	return pages
}
