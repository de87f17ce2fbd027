// Package session manages project sessions: directory scaffolds under the
// sessions root, the metadata document tracking stage progress, and the
// per-session lock that keeps two processes from mutating one session at the
// same time.
package session
