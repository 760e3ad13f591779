package models

type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type TokenPair struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh,omitempty"`
}
