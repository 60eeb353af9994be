// Package content turns fetched markup into the text forms stored for each
// page: whitespace-normalized plain text and lightweight markdown.
//
// Both transforms are pure functions over strings and operate on raw
// markup with pattern substitution rather than a DOM. They are meant for
// dataset building, where stable and predictable output matters more than
// a faithful rendering.
package content
