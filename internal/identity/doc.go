// Package identity matches loosely-specified references (a name, alias, or id
// string) against the session's character and location registries. The
// heuristics are deliberately simple and ordered; callers treat a miss as a
// data-quality condition, never a fatal error.
package identity
