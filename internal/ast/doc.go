// Package ast holds the typed syntax tree the compiler consumes.
//
// The front end (lexer, parser, attribute handling) lives outside this
// repository and hands over a serialized Namespace, either as JSON or as
// msgpack. Both encodings share the json struct tags. Nodes follow one shape:
// a Kind string plus the pointer payload fields that kind uses; fields a kind
// does not use stay nil.
package ast
