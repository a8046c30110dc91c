// Package charset loads model charset files and resolves charset ranges.
//
// A charset file describes how a recognition model wants its input (target
// size and channel count) and the ordered symbol table its output indexes
// into. A Range selects the subset of symbols a caller is interested in;
// Resolve expands it to a concrete list ending in the blank sentinel "".
package charset
