package userstore

import "strings"

const (
	// RecordExt is the on-disk extension for user record files.
	RecordExt = ".tlss"

	// credentialSeparator joins the salt and hash halves of a stored
	// password, US control character as in the legacy save format.
	credentialSeparator = "\x1f"
)

// UserRecord is one registered account. Token holds the pinned discovery
// token when token pinning is enabled; empty otherwise.
type UserRecord struct {
	ID             string
	Name           string
	Email          string
	HashedPassword string
	Color          int
	Token          string
}

// JoinCredential packs a salt and hash into the stored password form.
func JoinCredential(salt, hash string) string {
	return salt + credentialSeparator + hash
}

// SplitCredential unpacks a stored password into its salt and hash halves.
func SplitCredential(stored string) (salt, hash string, ok bool) {
	salt, hash, ok = strings.Cut(stored, credentialSeparator)
	return salt, hash, ok
}
