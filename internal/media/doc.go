// Package media models candidate files discovered under the watch roots and
// implements the recursive scanner that finds them.
//
// A File is a read-only snapshot taken at scan time; nothing in this package
// mutates the filesystem. Category placement (movies vs series) is inferred
// from the file's position inside its watch root so the destination tree can
// mirror the source structure.
package media
