// Package iso2709 reads MARC 21 records in the ISO 2709 exchange format.
//
// A record is a 24 byte leader, a directory of 12 byte entries (tag, length,
// offset) closed by a field terminator, and the variable fields themselves,
// closed by a record terminator. Tags 001-009 are control fields; all others
// carry two indicators and subfields introduced by the subfield delimiter.
//
// Records flagged as Unicode in leader position 09 are normalised to NFC.
// Other records are MARC-8: the basic and extended Latin sets are converted
// to UTF-8, with diacritics moved after their base character. Any other
// MARC-8 character set makes the record malformed.
package iso2709
