package accountapi

// User is the account profile returned by the service.
type User struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	FirstName          string `json:"firstName,omitempty"`
	LastName           string `json:"lastName,omitempty"`
	MembershipCredits  int64  `json:"membershipCredits"`
	BoostCredits       int64  `json:"boostCredits"`
	Locked             bool   `json:"isLocked,omitempty"`
	LockReason         string `json:"lockReason,omitempty"`
	MustChangePassword bool   `json:"mustChangePassword,omitempty"`
}

// TotalCredit is the sum of membership and boost credits.
func (u *User) TotalCredit() int64 {
	if u == nil {
		return 0
	}
	return u.MembershipCredits + u.BoostCredits
}

// Clone returns a copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	return &out
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Identifier        string `json:"identifier"`
	Secret            string `json:"secret"`
	DeviceFingerprint string `json:"deviceFingerprint"`
}

// LoginResponse is the body returned by a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// PaymentMethod summarizes the account's default card.
type PaymentMethod struct {
	ID       string `json:"id,omitempty"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"expMonth"`
	ExpYear  int    `json:"expYear"`
}

type paymentMethodResponse struct {
	PaymentMethod *PaymentMethod `json:"paymentMethod"`
}

type portalRequest struct {
	ReturnURL string `json:"returnUrl,omitempty"`
}

type portalResponse struct {
	URL string `json:"url"`
}

type setupIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type defaultMethodRequest struct {
	PaymentMethodID string `json:"paymentMethodId"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}
