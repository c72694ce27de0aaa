// Package flacenc mediates access to the flac CLI used for lossless encoding.
//
// It assembles tagged encode invocations, bounds them with duration-scaled
// timeouts, and validates encoder output by decoding the STREAMINFO header,
// so a truncated or misformatted file never reaches the library.
package flacenc
