package wellmatrix

// ParseWell splits a well identifier into its row key and column key.
//
// The row key is the leading run of non-digit characters and the column key
// is everything after it, kept as text so "02" and "2" stay distinct. No
// validation is done: "" yields ("", ""), "12" yields ("", "12") and "AB"
// yields ("AB", "").
func ParseWell(id string) (row, col string) {
	for i, r := range id {
		if r >= '0' && r <= '9' {
			return id[:i], id[i:]
		}
	}
	return id, ""
}
