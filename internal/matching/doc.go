// Package matching decides whether a catalog search result is the same song as a tracklist entry.
//
// # Normalization
//
// [Normalize] lower-cases a display string, cuts "(feat ..." and "(live ..." annotations, expands "&" to "and",
// and drops everything that is not an ASCII letter or digit.
//
// # Matching
//
// [Match] compares two normalized strings: equal, contained in one another, or within an edit distance of
// [DefaultMaxDistance]. The relation is symmetric but not transitive, so callers must never chain it.
//
// # Selection
//
// [Select] looks only at the top search result. Its title is cut at the first "-" to drop suffixes such as
// " - Remastered 2011", and both title and artist must match the values parsed from the entry by [SplitEntry].
package matching
