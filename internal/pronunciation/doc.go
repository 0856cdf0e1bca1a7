// Package pronunciation compares how a learner pronounced each word of an
// utterance against a reference dictionary and explains the first point
// where the two diverge.
//
// The package is split along the analysis stages:
//
//   - [Adapter] turns a word into the learner's phoneme sequence (via a
//     [g2p.Generator]) and into the canonical reference sequence (via a
//     [dictionary.Lookup]).
//   - A [Comparator] decides whether the two sequences differ and, if so,
//     builds a [Divergence]. [FirstMismatch] is the default.
//   - [Explain], [RenderHighlighted] and [SuggestionLine] turn a divergence
//     into learner-facing text and highlight data.
//   - [Analyzer] runs all of the above over one utterance.
//
// Everything except the [g2p.Generator] call is pure and safe for concurrent
// use.
package pronunciation
