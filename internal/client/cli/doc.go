// Package cli implements the chankeys command tree.
//
// Commands:
//
//	identity init | show
//	channel create | has | share | import | grant | members | dm
//	message encrypt | decrypt
//	file encrypt | decrypt
//
// Every command except identity resolves the configured blob store through
// session.Open and wipes cached channel keys before returning. Results go to
// stdout so they can be piped; status lines and logs go to stderr.
package cli
