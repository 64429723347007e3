// Package severity classifies console lines into ERROR, WARN, INFO, DEBUG
// or OTHER.
//
// Classification is a pure function of the line text: each level owns a
// list of tokens and a line belongs to the first level, in severity order,
// whose token it contains. A line such as "[ERROR] INFO message" is an
// ERROR line even though INFO appears too, and a line with no token at all
// is OTHER. Position in the stream and previous lines never matter.
//
// Stats is the running per-level tally kept by callers. It is only ever
// incremented, once per line, and zeroed on reset.
package severity
