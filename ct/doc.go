// Package ct implements the side-channel-resistant building blocks used by
// higher-level cryptographic code: mask generation, conditional select,
// constant-flow comparisons, constant-time buffer operations, and the
// flow-independent left shift that underlies PKCS#1 v1.5 unpadding.
//
// Every exported function's instruction sequence, memory-access sequence,
// and taken-branch sequence depends only on the lengths and bounds passed
// to it, never on the content of the buffers or the value of a "secret"
// argument (documented per function). Callers are responsible for not
// re-introducing a branch on the return value of a comparison primitive
// except where the function is explicitly public-input-only (e.g. a
// length mismatch panic).
package ct
