// Package notty binds a working directory to a hidden control directory that
// holds full-copy saves named by content hash.
//
// A Repository assumes it is the only writer. There is no locking: two
// processes mutating the same repository at once leave it in an undefined state.
package notty
