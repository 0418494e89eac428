package model

// User represents an account as stored in the credential store.  The json
// tags are the on-disk keys of users.json and must not change: existing files
// written by earlier versions of the shop are read as-is.
//
// Fields:
//  ID                 – opaque identifier, "u-<email slug>-<random>".
//  Name               – display name.
//  Email              – lowercased, unique.
//  PassHash           – base64 scrypt key derived from the password and Salt.
//  Salt               – base64 random bytes.
//  CreatedAt          – epoch milliseconds.
//  IsAdmin            – grants the back office.
//  IsVerified         – set once the emailed link is followed.
//  VerifyToken        – pending verification token, empty when none.
//  VerifyTokenExpires – epoch milliseconds after which VerifyToken is dead.
type User struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	PassHash           string `json:"passHash"`
	Salt               string `json:"salt"`
	CreatedAt          int64  `json:"createdAt"`
	IsAdmin            bool   `json:"isAdmin,omitempty"`
	IsVerified         bool   `json:"isVerified,omitempty"`
	VerifyToken        string `json:"verifyToken,omitempty"`
	VerifyTokenExpires int64  `json:"verifyTokenExpires,omitempty"`
}

// Public is the subset of a user that may leave the server.
type Public struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	IsAdmin    bool   `json:"isAdmin"`
	IsVerified bool   `json:"isVerified"`
}

func (u User) Public() Public {
	return Public{ID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin, IsVerified: u.IsVerified}
}
