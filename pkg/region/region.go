// Package region maps UTC offsets to places that keep that offset.
package region

import "sort"

// Unknown is returned in place of regions for an offset missing from the table.
const Unknown = "Unknown offset"

// Rows are ordered by preference; For keeps that order.
var table = map[int][]string{
	-12: {"Baker Island (US)", "Howland Island (US)"},
	-11: {"American Samoa", "Niue (NZ)"},
	-10: {"Hawaii (US)", "Cook Islands (NZ)"},
	-9:  {"Alaska (US)"},
	-8:  {"US Pacific (California, Washington)", "Canada (Pacific)"},
	-7:  {"US Mountain", "Canada (Mountain)"},
	-6:  {"US Central", "Mexico (Central)", "Guatemala", "Costa Rica"},
	-5:  {"US Eastern", "Canada (Eastern)", "Colombia", "Peru"},
	-4:  {"Atlantic (Canada)", "Bolivia", "Venezuela"},
	-3:  {"Argentina", "Brazil (East)", "Chile"},
	-2:  {"Fernando de Noronha (Brazil)"},
	-1:  {"Azores (Portugal)"},
	0:   {"UK", "Ireland", "Portugal (mainland)", "Iceland", "Morocco"},
	1:   {"Central Europe (Germany, France)", "Algeria", "Nigeria"},
	2:   {"Eastern Europe (Ukraine, Greece)", "Israel", "Egypt", "South Africa", "Romania"},
	3:   {"Russia (Moscow)", "Saudi Arabia", "Kenya"},
	4:   {"United Arab Emirates", "Armenia", "Seychelles"},
	5:   {"Pakistan", "Uzbekistan", "Maldives"},
	6:   {"Bangladesh", "Bhutan"},
	7:   {"Thailand", "Vietnam", "Cambodia"},
	8:   {"China", "Singapore", "Malaysia", "Western Australia"},
	9:   {"Japan", "South Korea", "East Timor"},
	10:  {"Eastern Australia", "Papua New Guinea", "Guam"},
	11:  {"Solomon Islands", "New Caledonia (France)"},
	12:  {"Fiji", "New Zealand", "Tuvalu", "Marshall Islands"},
}

// Lookup returns a copy of the table row for offset.
func Lookup(offset int) ([]string, bool) {
	row, ok := table[offset]
	if !ok {
		return nil, false
	}
	return append([]string(nil), row...), true
}

// For returns at most limit regions for offset, in table order. A negative
// limit returns the whole row. Offsets missing from the table yield
// []string{Unknown}.
func For(offset, limit int) []string {
	row, ok := Lookup(offset)
	if !ok {
		return []string{Unknown}
	}
	if limit >= 0 && limit < len(row) {
		row = row[:limit]
	}
	return row
}

// Offsets lists every offset in the table, ascending.
func Offsets() []int {
	offsets := make([]int, 0, len(table))
	for o := range table {
		offsets = append(offsets, o)
	}
	sort.Ints(offsets)
	return offsets
}
