/*
Package expr evaluates the {...} spans embedded in passage text.

The grammar is deliberately small. A span is one of:

  - a bare identifier: {name}
  - a member call on an identifier: {name.upper()}
  - a conditional whose test is an identifier, a negated identifier or a comparison:
    {flag ? "yes" : "no"}, {!flag ? a : b}, {score >= 10 ? "win" : "lose"}

Identifiers resolve to Variables by title. Anything else, including arithmetic,
renders as Sentinel without affecting the rest of the passage.
*/
package expr
