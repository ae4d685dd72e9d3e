// Package filter compiles comma-separated filter expressions into typed
// clauses and fetches the transactions they select.
//
// Grammar:
//
//	expr   := clause (',' clause)*
//	clause := date | date_range | int | int_range | word
//
// Each token is classified by its lexical shape alone, in a fixed order:
// single date, date range, integer, integer range, then a bare word naming a
// category. A token matching none of these rejects the whole expression.
package filter
