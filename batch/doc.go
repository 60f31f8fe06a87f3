// Package batch runs the separation pipeline over a manifest.
//
// Each utterance is loaded, analyzed, normalized, passed through the mask
// model, separated and resynthesized, one speaker file at a time. Utterances
// whose source file is missing are skipped; any other failure stops the run.
package batch
