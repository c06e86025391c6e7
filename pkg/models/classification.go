package models

// Classification is the deduplicator's verdict for an incoming article
type Classification string

const (
	// ClassNew means no stored article shares this identity key
	ClassNew Classification = "new"
	// ClassDuplicate means identity and content hash both match storage
	ClassDuplicate Classification = "duplicate"
	// ClassUpdated means the identity exists but the body was edited
	ClassUpdated Classification = "updated"
)
