// Package brute implements the generic throttled credential guessing engine
// shared by guessing-type modules. Protocol specifics live in collaborator
// functions supplied per run; the engine owns ordering, throttling, outcome
// classification, and fail-fast abort.
package brute

// Pair is an ordered (user, password) candidate.
type Pair struct {
	User     string
	Password string
}

// Generate expands user and password lists into the attack sequence.
// For each user in source order: the (user, user) pair first when userAsPass
// is set, then (user, password) for each password in source order. The order
// is the attempt order and therefore defines early-abort semantics. No
// deduplication is performed; an empty user or password list yields zero
// pairs with userAsPass unset.
func Generate(users, passwords []string, userAsPass bool) []Pair {
	var pairs []Pair
	for _, u := range users {
		if userAsPass {
			pairs = append(pairs, Pair{User: u, Password: u})
		}
		for _, p := range passwords {
			pairs = append(pairs, Pair{User: u, Password: p})
		}
	}
	return pairs
}
