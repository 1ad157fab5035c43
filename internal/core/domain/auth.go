package domain

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// CustomerData is the display data returned to the client after login.
type CustomerData struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company"`
}

// LoginResult is what a successful login produces.
type LoginResult struct {
	Customer         CustomerData
	ProfileCompleted bool
	NextStep         string
	Redirect         string
}
