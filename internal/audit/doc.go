// Package audit checks discovered test units for marker problems: markers
// that cannot be read statically, invalid tag names, duplicated applications
// and units that claim more than one size.
package audit
