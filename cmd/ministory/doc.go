// Command ministory drives the story-to-video pipeline: it creates sessions
// from raw story text, runs the five generation stages, and inspects progress
// and cached assets.
package main
