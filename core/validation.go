package core

// ValidateArticle checks the invariants every article must satisfy before it
// enters the store or the index. The UUID is the primary identity and the URL
// is the unique secondary key; an article missing either is unusable.
func ValidateArticle(a *Article) error {
	if a.UUID == "" {
		return ErrMissingUUID
	}
	if a.URL == "" {
		return ErrMissingURL
	}
	return nil
}
