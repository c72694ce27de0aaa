// Package accuraterip implements the checksum and disc identity math used to
// verify extracted CD audio against the AccurateRip registry: the v1/v2 track
// checksums, the three-part disc ID derived from the table of contents, the
// dBAR binary record format, and the HTTP lookup client.
//
// Checksums and disc IDs are pure functions of their inputs. Identical TOCs
// and identical sample streams always produce identical values, which is what
// makes independent rips of the same pressing comparable.
package accuraterip
