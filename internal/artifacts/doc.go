// Package artifacts persists stage outputs as JSON documents under a session
// root. Every kind has one canonical relative path; writes replace the whole
// document atomically so a failed write never corrupts the previous version.
package artifacts
