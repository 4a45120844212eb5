package models

// Credentials are a portal login pair, received already decrypted from the
// credential store. The secret must never be logged or persisted in clear
// form; String exists so accidental formatting stays safe.
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) String() string {
	return c.Username + ":******"
}

func (c Credentials) Empty() bool {
	return c.Username == "" || c.Password == ""
}
