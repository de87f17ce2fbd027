// Package textutil provides small text helpers shared across the pipeline:
// filesystem-safe name sanitizing for session and artifact paths, and token
// splitting used by the identity resolver.
package textutil
