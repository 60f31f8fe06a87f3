// Package cmvn turns complex spectrograms into normalized log-magnitude
// features.
//
// Features are log(max(|X|, Floor)). When global statistics are supplied the
// per-bin mean is subtracted and the result divided by the per-bin standard
// deviation. Statistics are plain values loaded once and passed explicitly to
// the Normalizer.
package cmvn
