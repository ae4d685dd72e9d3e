// Package conversation routes chat events to handlers based on each user's
// interaction state.
//
// Every user has one Session holding the current State and the transient
// context of multi-turn flows: the last listed transactions, the selected
// transaction, the category being renamed and the chosen export format.
// Events for one user are handled strictly one at a time under that
// session's lock; different users proceed in parallel.
//
// Text starting with "/" is a command and always pre-empts the state's text
// handler. Buttons are routed by callback id, with "transaction_<id>" going to
// selection in any state. Every handler returns the reply and exactly one
// successor state.
package conversation
