// Package trunk is a bundler for static web applications: it scans asset
// declarations out of an HTML document, builds each asset concurrently, and
// rewrites the document so every placeholder points at its real build
// output.
package trunk

// Version is the current trunk release.
const Version = "0.1.0"
