package flows

// Deps groups flow dependency sets. The root engine builds this once and
// delegates to the matching flow.
type Deps struct {
	Login      LoginDeps
	Revalidate RevalidateDeps
	Logout     LogoutDeps
	Payment    PaymentDeps
}
