// internal/stages/contact/models.go
package contact

type Input struct {
	Email      string `json:"email"`
	Preference bool   `json:"preference"`
}

type Output struct {
	Updated bool `json:"updated"`
}
