// Package fuzztests houses Go fuzz harnesses for the fragment file decoder
// and the merger. Decoding arbitrary bytes must never panic, and merging
// fragments with arbitrary colliding names must keep names unique and every
// reference resolvable.
package fuzztests
