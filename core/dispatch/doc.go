// Package dispatch implements the allocation engine that moves scarce
// emergency resources from stations to open calls.
//
// A dispatch action walks a fixed sequence:
//
//	Confirming -> Matching -> Applying -> Logging -> Syncing
//
// with early exits back to idle when the confirmation gate declines, no call
// is eligible within radius, or the dispatchable quantity is zero. Matching
// is a greedy nearest-call scan; the engine makes no global optimality
// claim. Failures past Applying never roll back the inventory and call-set
// mutations: local state stays authoritative for the session and the next
// feed poll reconverges external observers.
package dispatch
