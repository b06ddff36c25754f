// Package fingerprint derives exact-match keys from vectors.
//
// Every component is rounded to a fixed number of significant decimal digits
// (round half away from zero on the exact decimal value of the float64),
// serialized as text behind a dimension prefix and hashed with SHA-256.
// Two vectors get the same Fingerprint exactly when all their rounded
// components agree, whatever textual form the inputs had.
//
// Signed zeros collapse to "0". NaN, +Inf and -Inf become the tokens "nan",
// "+inf" and "-inf", which no finite value can produce.
package fingerprint
